package passes

import (
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/cfg"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

// ConstantFolder evaluates instructions whose operands are all constants
// and replaces them with a Move of the folded value, then substitutes the
// constant of every Move-of-constant definition into the operands that
// read it, so a chain of constant-dependent instructions collapses one
// link per run. Expressions with a non-constant root (e.g.
// `t1 = x + 1; t2 = t1 + 2`) are not re-associated. Grounded on
// original_source/src/optimizers/constant_folder.cpp.
type ConstantFolder struct{}

func (*ConstantFolder) Name() string { return "constant-folder" }

func (p *ConstantFolder) Run(g *cfg.Graph, fn *il.Function, logger diag.ILogger) Result {
	changed := false

	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		for idx, instr := range b.Instr {
			folded, ok := tryFold(instr)
			if !ok {
				continue
			}
			b.Instr[idx] = folded
			changed = true
		}
	}

	if reassociate(fn) {
		changed = true
	}

	if changed {
		return Changed
	}
	return None
}

// tryFold evaluates instr if every operand is a Constant, returning a
// replacement Move/CastInstr-as-move carrying the folded value.
func tryFold(instr il.Instruction) (il.Instruction, bool) {
	switch t := instr.(type) {
	case *il.BinaryInstr:
		l, lok := il.AsConstant(t.Left)
		r, rok := il.AsConstant(t.Right)
		if !lok || !rok {
			return nil, false
		}
		val, err, ok := il.FoldBinary(t.Op, l.Value, r.Value)
		if err != nil || !ok {
			return nil, false
		}
		return &il.MoveInstr{ResultVar: t.ResultVar, Src: il.Constant{Value: val}}, true
	case *il.UnaryInstr:
		v, ok := il.AsConstant(t.Operand)
		if !ok {
			return nil, false
		}
		val, ok := il.FoldUnary(t.Op, v.Value)
		if !ok {
			return nil, false
		}
		return &il.MoveInstr{ResultVar: t.ResultVar, Src: il.Constant{Value: val}}, true
	case *il.CastInstr:
		v, ok := il.AsConstant(t.Src)
		if !ok {
			return nil, false
		}
		return &il.MoveInstr{ResultVar: t.ResultVar, Src: il.Constant{Value: il.Cast(v.Value, t.Target)}}, true
	default:
		return nil, false
	}
}

// reassociate builds a def map (result var -> defining Move-to-constant)
// and rewrites operands that reference an already-folded variable with
// its constant directly, letting a second tryFold pass over the same
// instructions (the next Schedule iteration) collapse chains of
// constant-dependent arithmetic one link at a time.
func reassociate(fn *il.Function) bool {
	defMap := make(map[il.VarID]il.Constant)
	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		for _, instr := range b.Instr {
			mv, ok := instr.(*il.MoveInstr)
			if !ok {
				continue
			}
			if c, ok := il.AsConstant(mv.Src); ok {
				defMap[mv.ResultVar] = c
			}
		}
	}
	if len(defMap) == 0 {
		return false
	}

	changed := false
	fn.Walk(func(b *il.BasicBlock, idx int, instr il.Instruction) {
		ops := instr.Operands()
		if len(ops) == 0 {
			return
		}
		newOps := make([]il.Operand, len(ops))
		rewritten := false
		for i, op := range ops {
			v, ok := il.AsVariable(op)
			if !ok {
				newOps[i] = op
				continue
			}
			if c, ok := defMap[v.ID]; ok {
				newOps[i] = c
				rewritten = true
				continue
			}
			newOps[i] = op
		}
		if rewritten {
			instr.SetOperands(newOps)
			changed = true
		}
	})
	return changed
}
