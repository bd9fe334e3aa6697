package passes

import (
	"fmt"
	"strings"

	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/cfg"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

// CommonSubexpressionEliminator replaces a recomputation of an
// already-computed value within the same block with a Move of the
// earlier result, keyed by opcode+operands (plus the target kind for a
// Cast). Load, Move,
// Store, StoreParam, LoadParam, and Phi are excluded: their identity is
// positional, not value-based, matching the original's exclusion list.
// Grounded on
// original_source/src/optimizers/common_sub_expression.cpp.
type CommonSubexpressionEliminator struct{}

func (*CommonSubexpressionEliminator) Name() string { return "cse" }

func (p *CommonSubexpressionEliminator) Run(g *cfg.Graph, fn *il.Function, logger diag.ILogger) Result {
	changed := false
	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		seen := make(map[string]il.VarID)
		for idx, instr := range b.Instr {
			op := instr.Opcode()
			if op.IsRepresentational() || op.HasSideEffects() {
				continue
			}
			ri, ok := instr.(il.ResultInstr)
			if !ok {
				continue
			}
			result, has := ri.Result()
			if !has {
				continue
			}
			key := keyOf(instr)
			if prior, ok := seen[key]; ok {
				b.Instr[idx] = &il.MoveInstr{ResultVar: result, Src: il.Variable{ID: prior}}
				changed = true
				continue
			}
			seen[key] = result
		}
	}
	if changed {
		return Changed
	}
	return None
}

// keyOf builds a canonical string key for an instruction's value
// identity: opcode plus operands, with operand order normalized for
// commutative ops so `a+b` and `b+a` hash identically.
func keyOf(instr il.Instruction) string {
	ops := instr.Operands()
	parts := make([]string, len(ops))
	for i, o := range ops {
		parts[i] = o.String()
	}
	if instr.Opcode().IsCommutative() && len(parts) == 2 && parts[1] < parts[0] {
		parts[0], parts[1] = parts[1], parts[0]
	}
	if ci, ok := instr.(*il.CastInstr); ok {
		return fmt.Sprintf("cast<%s>(%s)", ci.Target, strings.Join(parts, ","))
	}
	return fmt.Sprintf("%s(%s)", instr.Opcode(), strings.Join(parts, ","))
}
