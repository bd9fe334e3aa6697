package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/cfg"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

func TestDCERemovesUnusedValue(t *testing.T) {
	var unused, used il.VarID
	fn := singleBlockFunc(func(fn *il.Function, b *il.BasicBlock) {
		unused = fn.Meta.DeclareVar(il.KindI32, true, "")
		used = fn.Meta.DeclareVar(il.KindI32, true, "")
		b.Append(&il.MoveInstr{ResultVar: unused, Src: il.Constant{Value: il.IntNumber(il.KindI32, 1)}})
		b.Append(&il.MoveInstr{ResultVar: used, Src: il.Constant{Value: il.IntNumber(il.KindI32, 2)}})
		b.Append(&il.ReturnInstr{Value: il.Variable{ID: used}, HasValue: true})
	})

	g := cfg.New(fn)
	g.Build()
	dce := &DeadCodeEliminator{}
	res := dce.Run(g, fn, diag.NopLogger{})
	require.Equal(t, Changed, res)
	require.Len(t, fn.Block(0).Instr, 2, "expected the dead Move to be swept")

	mv, ok := fn.Block(0).Instr[0].(*il.MoveInstr)
	require.True(t, ok)
	require.Equal(t, used, mv.ResultVar)
}

func TestDCEKeepsCallForSideEffects(t *testing.T) {
	fn := singleBlockFunc(func(fn *il.Function, b *il.BasicBlock) {
		b.Append(&il.CallInstr{Callee: il.FuncRef{Name: "sideeffect"}, ArgCount: 0})
		b.Append(&il.ReturnInstr{})
	})

	g := cfg.New(fn)
	g.Build()
	dce := &DeadCodeEliminator{}
	res := dce.Run(g, fn, diag.NopLogger{})
	require.Equal(t, None, res)
	require.Len(t, fn.Block(0).Instr, 2)
}
