package passes

import (
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/cfg"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

// DeadCodeEliminator walks each block in reverse, marking an
// instruction's operands live as soon as the instruction itself is
// known live (its result is used, it has side effects, or it is the
// block's terminator), then sweeps anything never marked. A CondJump's
// condition-producing instruction needs no separate protection: the
// CondJump is a side-effecting terminator, so its condition operand is
// marked live before the producer is reached. There is no lookahead flag
// like the original's `protectedInstr`. Grounded on
// original_source/src/optimizers/dead_code_eliminator.cpp.
type DeadCodeEliminator struct{}

func (*DeadCodeEliminator) Name() string { return "dce" }

func (p *DeadCodeEliminator) Run(g *cfg.Graph, fn *il.Function, logger diag.ILogger) Result {
	changed := false
	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		if sweepBlock(b) {
			changed = true
		}
	}
	if changed {
		return Changed
	}
	return None
}

func sweepBlock(b *il.BasicBlock) bool {
	live := make(map[il.VarID]bool)
	keep := make([]bool, len(b.Instr))

	for idx := len(b.Instr) - 1; idx >= 0; idx-- {
		instr := b.Instr[idx]
		isLive := instr.Opcode().HasSideEffects()
		if !isLive {
			if ri, ok := instr.(il.ResultInstr); ok {
				if result, has := ri.Result(); has && live[result] {
					isLive = true
				}
			}
		}
		if isLive {
			keep[idx] = true
			for _, op := range instr.Operands() {
				if v, ok := il.AsVariable(op); ok {
					live[v.ID] = true
				}
			}
		}
	}

	out := b.Instr[:0]
	changed := false
	for idx, instr := range b.Instr {
		if keep[idx] {
			out = append(out, instr)
		} else {
			changed = true
		}
	}
	b.Instr = out
	return changed
}
