package ssa

import (
	"testing"

	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/cfg"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

// diamondAssign builds:
//
//	b0: store x, 1; jz cond, b1, b2
//	b1: store x, 2; jump b3
//	b2: store x, 3; jump b3
//	b3: t = load x; return t
func diamondAssign(t *testing.T) (*il.Function, il.VarID) {
	t.Helper()
	fn := &il.Function{}
	x := fn.Meta.DeclareVar(il.KindI32, false, "x")
	tmp := fn.Meta.DeclareVar(il.KindI32, true, "")

	b0 := fn.NewBlock()
	b1 := fn.NewBlock()
	b2 := fn.NewBlock()
	b3 := fn.NewBlock()

	b0.Append(&il.StoreInstr{Dst: x, Src: il.Constant{Value: il.IntNumber(il.KindI32, 1)}})
	b0.Append(&il.CondJumpInstr{Op: il.OpJumpZero, Cond: il.Constant{Value: il.BoolNumber(true)}, TakenBlock: b1.ID, FallthruBlock: b2.ID})

	b1.Append(&il.StoreInstr{Dst: x, Src: il.Constant{Value: il.IntNumber(il.KindI32, 2)}})
	b1.Append(&il.JumpInstr{Target: b3.ID})

	b2.Append(&il.StoreInstr{Dst: x, Src: il.Constant{Value: il.IntNumber(il.KindI32, 3)}})
	b2.Append(&il.JumpInstr{Target: b3.ID})

	b3.Append(&il.LoadInstr{ResultVar: tmp, Src: x})
	b3.Append(&il.ReturnInstr{Value: il.Variable{ID: tmp}, HasValue: true})

	fn.Entry = b0.ID
	return fn, x
}

func TestBuildInsertsPhiAtJoin(t *testing.T) {
	fn, _ := diamondAssign(t)
	g := cfg.New(fn)
	g.Build()

	if err := Build(g, fn); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !fn.InSSA {
		t.Fatalf("expected fn.InSSA true")
	}

	b3 := fn.Block(3)
	phis := b3.Phis()
	if len(phis) != 1 {
		t.Fatalf("expected exactly one phi at join block, got %d", len(phis))
	}
	if len(phis[0].Args) != 2 {
		t.Fatalf("expected phi arity 2, got %d", len(phis[0].Args))
	}

	// The Load in b3 must have become a Move reading the phi's result.
	var foundMove bool
	for _, instr := range b3.Instr {
		if mv, ok := instr.(*il.MoveInstr); ok {
			if v, ok := il.AsVariable(mv.Src); ok && v.ID == phis[0].ResultVar {
				foundMove = true
			}
		}
	}
	if !foundMove {
		t.Fatalf("expected the load-turned-move to read the phi result")
	}

	// No Store/Load instructions should survive SSA construction.
	fn.Walk(func(b *il.BasicBlock, idx int, instr il.Instruction) {
		switch instr.(type) {
		case *il.StoreInstr, *il.LoadInstr:
			t.Fatalf("unexpected %T surviving SSA build", instr)
		}
	})
}

func TestBuildRejectsAlreadySSA(t *testing.T) {
	fn, _ := diamondAssign(t)
	g := cfg.New(fn)
	g.Build()
	if err := Build(g, fn); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if err := Build(g, fn); err == nil {
		t.Fatalf("expected error on rebuilding already-SSA function")
	}
}

func TestReduceErasesPhis(t *testing.T) {
	fn, _ := diamondAssign(t)
	g := cfg.New(fn)
	g.Build()
	if err := Build(g, fn); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	Reduce(fn)

	if fn.InSSA {
		t.Fatalf("expected InSSA false after Reduce")
	}
	fn.Walk(func(b *il.BasicBlock, idx int, instr il.Instruction) {
		if _, ok := instr.(*il.PhiInstr); ok {
			t.Fatalf("unexpected Phi surviving Reduce")
		}
	})

	// b1 and b2 should now each carry a Move feeding the (former) phi
	// register before their terminating Jump.
	for _, id := range []int{1, 2} {
		b := fn.Block(id)
		if len(b.Instr) < 2 {
			t.Fatalf("block %d too short after phi erasure: %d instrs", id, len(b.Instr))
		}
		term := b.Instr[len(b.Instr)-1]
		if _, ok := term.(*il.JumpInstr); !ok {
			t.Fatalf("block %d should still end in its Jump terminator", id)
		}
		if _, ok := b.Instr[len(b.Instr)-2].(*il.MoveInstr); !ok {
			t.Fatalf("block %d should have a Move inserted before its terminator", id)
		}
	}
}
