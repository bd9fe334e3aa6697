package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/cfg"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

func TestCSEReplacesRecomputation(t *testing.T) {
	var a, b1, t1, t2 il.VarID
	fn := singleBlockFunc(func(fn *il.Function, blk *il.BasicBlock) {
		a = fn.Meta.DeclareVar(il.KindI32, false, "a")
		b1 = fn.Meta.DeclareVar(il.KindI32, false, "b")
		t1 = fn.Meta.DeclareVar(il.KindI32, true, "")
		t2 = fn.Meta.DeclareVar(il.KindI32, true, "")
		blk.Append(&il.BinaryInstr{Op: il.OpAdd, ResultVar: t1, Left: il.Variable{ID: a}, Right: il.Variable{ID: b1}})
		blk.Append(&il.BinaryInstr{Op: il.OpAdd, ResultVar: t2, Left: il.Variable{ID: a}, Right: il.Variable{ID: b1}})
		blk.Append(&il.ReturnInstr{Value: il.Variable{ID: t2}, HasValue: true})
	})

	g := cfg.New(fn)
	g.Build()
	cse := &CommonSubexpressionEliminator{}
	res := cse.Run(g, fn, diag.NopLogger{})
	require.Equal(t, Changed, res)

	mv, ok := fn.Block(0).Instr[1].(*il.MoveInstr)
	require.True(t, ok, "expected second add to become a Move of the first result")
	v, ok := il.AsVariable(mv.Src)
	require.True(t, ok)
	require.Equal(t, t1, v.ID)
}

func TestCSECommutativeOperandOrderMatches(t *testing.T) {
	var a, b1, t1, t2 il.VarID
	fn := singleBlockFunc(func(fn *il.Function, blk *il.BasicBlock) {
		a = fn.Meta.DeclareVar(il.KindI32, false, "a")
		b1 = fn.Meta.DeclareVar(il.KindI32, false, "b")
		t1 = fn.Meta.DeclareVar(il.KindI32, true, "")
		t2 = fn.Meta.DeclareVar(il.KindI32, true, "")
		blk.Append(&il.BinaryInstr{Op: il.OpAdd, ResultVar: t1, Left: il.Variable{ID: a}, Right: il.Variable{ID: b1}})
		blk.Append(&il.BinaryInstr{Op: il.OpAdd, ResultVar: t2, Left: il.Variable{ID: b1}, Right: il.Variable{ID: a}})
		blk.Append(&il.ReturnInstr{Value: il.Variable{ID: t2}, HasValue: true})
	})

	g := cfg.New(fn)
	g.Build()
	cse := &CommonSubexpressionEliminator{}
	res := cse.Run(g, fn, diag.NopLogger{})
	require.Equal(t, Changed, res)
}

func TestCSEDoesNotCoalesceLoads(t *testing.T) {
	var x, t1, t2 il.VarID
	fn := singleBlockFunc(func(fn *il.Function, blk *il.BasicBlock) {
		x = fn.Meta.DeclareVar(il.KindI32, false, "x")
		t1 = fn.Meta.DeclareVar(il.KindI32, true, "")
		t2 = fn.Meta.DeclareVar(il.KindI32, true, "")
		blk.Append(&il.LoadInstr{ResultVar: t1, Src: x})
		blk.Append(&il.LoadInstr{ResultVar: t2, Src: x})
		blk.Append(&il.ReturnInstr{Value: il.Variable{ID: t2}, HasValue: true})
	})

	g := cfg.New(fn)
	g.Build()
	cse := &CommonSubexpressionEliminator{}
	res := cse.Run(g, fn, diag.NopLogger{})
	require.Equal(t, None, res, "Load must be excluded from CSE")
}
