package cfg

import "github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"

// Unlink removes the edge from -> to, used when a CondJump is folded to
// an unconditional Jump and one arm becomes unreachable. Callers must
// follow up with RebuildDomTree before relying on dominance again.
func (g *Graph) Unlink(from, to int) {
	fb := g.Fn.Block(from)
	tb := g.Fn.Block(to)
	if fb != nil {
		fb.RemoveSucc(to)
	}
	if tb != nil {
		tb.RemovePred(from)
	}
}

// RemoveNode marks b dead and severs all its remaining edges. Only valid
// once b has no live predecessors (the caller is responsible for having
// unlinked them first); any predecessor edge still present is unlinked
// here too, but that predecessor's terminator still names b.
func (g *Graph) RemoveNode(id int) {
	b := g.Fn.Block(id)
	if b == nil {
		return
	}
	for _, s := range append([]int(nil), b.Succs...) {
		g.Unlink(id, s)
	}
	for _, p := range append([]int(nil), b.Preds...) {
		g.Unlink(p, id)
	}
	b.Dead = true
}

// MergeNodes folds b's instructions into a when a is b's sole
// predecessor and b is a's sole successor: the classic straight-line
// block merge that follows branch folding and dead-arm removal. Returns
// false if the precondition doesn't hold.
func (g *Graph) MergeNodes(a, b int) bool {
	ab := g.Fn.Block(a)
	bb := g.Fn.Block(b)
	if ab == nil || bb == nil {
		return false
	}
	if len(ab.Succs) != 1 || ab.Succs[0] != b {
		return false
	}
	if len(bb.Preds) != 1 || bb.Preds[0] != a {
		return false
	}
	if len(ab.Instr) == 0 {
		return false
	}
	// Drop a's terminator (the Jump into b) and splice b's instructions
	// in its place.
	ab.Instr = ab.Instr[:len(ab.Instr)-1]
	ab.Instr = append(ab.Instr, bb.Instr...)

	ab.RemoveSucc(b)
	for _, s := range append([]int(nil), bb.Succs...) {
		bb.RemoveSucc(s)
		if sb := g.Fn.Block(s); sb != nil {
			sb.RemovePred(b)
			sb.AddPred(a)
		}
		ab.AddSucc(s)
	}
	bb.Dead = true
	retargetJumps(g.Fn, b, a)
	return true
}

// retargetJumps rewrites any CondJump/Jump instruction in the function
// that still names `from` as a target to name `to` instead. Needed after
// MergeNodes collapses a block whose id other instructions' operands
// (phi Block fields, jump targets) might still reference.
func retargetJumps(fn *il.Function, from, to int) {
	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		for _, instr := range b.Instr {
			switch t := instr.(type) {
			case *il.JumpInstr:
				if t.Target == from {
					t.Target = to
				}
			case *il.CondJumpInstr:
				if t.TakenBlock == from {
					t.TakenBlock = to
				}
				if t.FallthruBlock == from {
					t.FallthruBlock = to
				}
			case *il.PhiInstr:
				for i := range t.Args {
					if t.Args[i].Block == from {
						t.Args[i].Block = to
					}
				}
			}
		}
	}
}
