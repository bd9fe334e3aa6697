package cfg

import (
	"testing"

	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

// diamond builds:
//
//	b0 -> b1, b2
//	b1 -> b3
//	b2 -> b3
//	b3 (return)
func diamond() *il.Function {
	fn := &il.Function{}
	b0 := fn.NewBlock()
	b1 := fn.NewBlock()
	b2 := fn.NewBlock()
	b3 := fn.NewBlock()
	b0.Append(&il.CondJumpInstr{Op: il.OpJumpZero, Cond: il.Constant{Value: il.BoolNumber(true)}, TakenBlock: b1.ID, FallthruBlock: b2.ID})
	b1.Append(&il.JumpInstr{Target: b3.ID})
	b2.Append(&il.JumpInstr{Target: b3.ID})
	b3.Append(&il.ReturnInstr{})
	fn.Entry = b0.ID
	return fn
}

func TestDominatorsDiamond(t *testing.T) {
	fn := diamond()
	g := New(fn)
	g.Build()

	if !g.Dominates(0, 3) {
		t.Fatalf("expected entry to dominate b3")
	}
	if g.Dominates(1, 3) {
		t.Fatalf("b1 should not dominate b3 (b2 is another path)")
	}
	if g.IDom[3] != 0 {
		t.Fatalf("expected b0 as idom of b3, got %d", g.IDom[3])
	}
}

func TestDominanceFrontierDiamond(t *testing.T) {
	fn := diamond()
	g := New(fn)
	g.Build()

	if len(g.Frontier[1]) != 1 || g.Frontier[1][0] != 3 {
		t.Fatalf("expected b1's frontier to be {b3}, got %v", g.Frontier[1])
	}
	if len(g.Frontier[2]) != 1 || g.Frontier[2][0] != 3 {
		t.Fatalf("expected b2's frontier to be {b3}, got %v", g.Frontier[2])
	}
}

func TestUnlinkAndRemoveNode(t *testing.T) {
	fn := diamond()
	g := New(fn)
	g.Build()

	// Simulate folding the branch to always take b1: unlink b0->b2 and
	// remove b2 (no longer reachable).
	g.Unlink(0, 2)
	g.RemoveNode(2)
	g.RebuildDomTree()

	b0 := fn.Block(0)
	if b0.HasSucc(2) {
		t.Fatalf("expected b0->b2 edge gone")
	}
	if fn.Block(2) != nil {
		t.Fatalf("expected b2 to read as dead")
	}
	b3 := fn.Block(3)
	if len(b3.Preds) != 1 || b3.Preds[0] != 1 {
		t.Fatalf("expected b3's sole pred to be b1, got %v", b3.Preds)
	}
}

func TestMergeNodes(t *testing.T) {
	fn := &il.Function{}
	b0 := fn.NewBlock()
	b1 := fn.NewBlock()
	b0.Append(&il.JumpInstr{Target: b1.ID})
	b1.Append(&il.ReturnInstr{})
	fn.Entry = b0.ID

	g := New(fn)
	g.Build()

	if ok := g.MergeNodes(0, 1); !ok {
		t.Fatalf("expected merge to succeed")
	}
	if fn.Block(1) != nil {
		t.Fatalf("expected b1 dead after merge")
	}
	merged := fn.Block(0)
	if len(merged.Instr) != 1 {
		t.Fatalf("expected merged block to carry b1's single Return, got %d instrs", len(merged.Instr))
	}
	if _, ok := merged.Instr[0].(*il.ReturnInstr); !ok {
		t.Fatalf("expected Return as merged block's only instruction")
	}
}
