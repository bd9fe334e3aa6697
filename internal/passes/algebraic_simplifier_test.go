package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/cfg"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

func TestAlgebraicSimplifierAddZero(t *testing.T) {
	var a, result il.VarID
	fn := singleBlockFunc(func(fn *il.Function, b *il.BasicBlock) {
		a = fn.Meta.DeclareVar(il.KindI32, false, "a")
		result = fn.Meta.DeclareVar(il.KindI32, true, "")
		b.Append(&il.BinaryInstr{Op: il.OpAdd, ResultVar: result, Left: il.Variable{ID: a}, Right: il.Constant{Value: il.IntNumber(il.KindI32, 0)}})
		b.Append(&il.ReturnInstr{})
	})

	g := cfg.New(fn)
	g.Build()
	as := &AlgebraicSimplifier{}
	res := as.Run(g, fn, diag.NopLogger{})
	require.Equal(t, Changed, res)
	mv, ok := fn.Block(0).Instr[0].(*il.MoveInstr)
	require.True(t, ok)
	v, ok := il.AsVariable(mv.Src)
	require.True(t, ok)
	require.Equal(t, a, v.ID)
}

func TestAlgebraicSimplifierFoldsConstantBranch(t *testing.T) {
	fn := &il.Function{}
	b0 := fn.NewBlock()
	b1 := fn.NewBlock()
	b2 := fn.NewBlock()
	b0.Append(&il.CondJumpInstr{Op: il.OpJumpNotZero, Cond: il.Constant{Value: il.BoolNumber(true)}, TakenBlock: b1.ID, FallthruBlock: b2.ID})
	b1.Append(&il.ReturnInstr{Value: il.Constant{Value: il.IntNumber(il.KindI32, 1)}, HasValue: true})
	b2.Append(&il.ReturnInstr{Value: il.Constant{Value: il.IntNumber(il.KindI32, 2)}, HasValue: true})
	fn.Entry = b0.ID

	g := cfg.New(fn)
	g.Build()
	as := &AlgebraicSimplifier{}
	res := as.Run(g, fn, diag.NopLogger{})
	require.Equal(t, Rerun, res)

	require.Nil(t, fn.Block(2), "fallthrough arm should be dead after folding a true condition")
	merged := fn.Block(0)
	require.NotNil(t, merged)
	jmp, ok := merged.Terminator().(*il.ReturnInstr)
	require.True(t, ok, "expected b0 merged with b1 into a single Return-terminated block")
	c, ok := il.AsConstant(jmp.Value)
	require.True(t, ok)
	require.Equal(t, int64(1), c.Value.AsInt64())
}

func TestAlgebraicSimplifierDivideByZeroLogsAndRewrites(t *testing.T) {
	var a, result il.VarID
	fn := singleBlockFunc(func(fn *il.Function, b *il.BasicBlock) {
		a = fn.Meta.DeclareVar(il.KindI32, false, "a")
		result = fn.Meta.DeclareVar(il.KindI32, true, "")
		b.Append(&il.BinaryInstr{Op: il.OpDivide, ResultVar: result, Left: il.Variable{ID: a}, Right: il.Constant{Value: il.IntNumber(il.KindI32, 0)}})
		b.Append(&il.ReturnInstr{})
	})

	g := cfg.New(fn)
	g.Build()
	as := &AlgebraicSimplifier{}
	logger := &diag.CollectingLogger{}
	res := as.Run(g, fn, logger)
	require.Equal(t, Changed, res)

	mv, ok := fn.Block(0).Instr[0].(*il.MoveInstr)
	require.True(t, ok)
	v, ok := il.AsVariable(mv.Src)
	require.True(t, ok)
	require.Equal(t, a, v.ID)

	require.Len(t, logger.Entries, 1)
	require.Equal(t, diag.SeverityWarn, logger.Entries[0].Severity)
}

func TestAlgebraicSimplifierDivideSelfIsOne(t *testing.T) {
	var a, result il.VarID
	fn := singleBlockFunc(func(fn *il.Function, b *il.BasicBlock) {
		a = fn.Meta.DeclareVar(il.KindI32, false, "a")
		result = fn.Meta.DeclareVar(il.KindI32, true, "")
		b.Append(&il.BinaryInstr{Op: il.OpDivide, ResultVar: result, Left: il.Variable{ID: a}, Right: il.Variable{ID: a}})
		b.Append(&il.ReturnInstr{})
	})

	g := cfg.New(fn)
	g.Build()
	as := &AlgebraicSimplifier{}
	res := as.Run(g, fn, diag.NopLogger{})
	require.Equal(t, Changed, res)

	mv, ok := fn.Block(0).Instr[0].(*il.MoveInstr)
	require.True(t, ok)
	c, ok := il.AsConstant(mv.Src)
	require.True(t, ok)
	require.Equal(t, int64(1), c.Value.AsInt64())
}

func TestAlgebraicSimplifierSubtractFromZero(t *testing.T) {
	var a, result il.VarID
	fn := singleBlockFunc(func(fn *il.Function, b *il.BasicBlock) {
		a = fn.Meta.DeclareVar(il.KindI32, false, "a")
		result = fn.Meta.DeclareVar(il.KindI32, true, "")
		b.Append(&il.BinaryInstr{Op: il.OpSubtract, ResultVar: result, Left: il.Constant{Value: il.IntNumber(il.KindI32, 0)}, Right: il.Variable{ID: a}})
		b.Append(&il.ReturnInstr{})
	})

	g := cfg.New(fn)
	g.Build()
	as := &AlgebraicSimplifier{}
	res := as.Run(g, fn, diag.NopLogger{})
	require.Equal(t, Changed, res)

	mv, ok := fn.Block(0).Instr[0].(*il.MoveInstr)
	require.True(t, ok)
	v, ok := il.AsVariable(mv.Src)
	require.True(t, ok)
	require.Equal(t, a, v.ID)
}

func TestAlgebraicSimplifierModulusOfZeroDividend(t *testing.T) {
	var a, result il.VarID
	fn := singleBlockFunc(func(fn *il.Function, b *il.BasicBlock) {
		a = fn.Meta.DeclareVar(il.KindI32, false, "a")
		result = fn.Meta.DeclareVar(il.KindI32, true, "")
		b.Append(&il.BinaryInstr{Op: il.OpModulus, ResultVar: result, Left: il.Constant{Value: il.IntNumber(il.KindI32, 0)}, Right: il.Variable{ID: a}})
		b.Append(&il.ReturnInstr{})
	})

	g := cfg.New(fn)
	g.Build()
	as := &AlgebraicSimplifier{}
	res := as.Run(g, fn, diag.NopLogger{})
	require.Equal(t, Changed, res)

	mv, ok := fn.Block(0).Instr[0].(*il.MoveInstr)
	require.True(t, ok)
	c, ok := il.AsConstant(mv.Src)
	require.True(t, ok)
	require.True(t, c.Value.IsZero())
}

func TestAlgebraicSimplifierDoubleNegation(t *testing.T) {
	var a, t1, t2 il.VarID
	fn := singleBlockFunc(func(fn *il.Function, b *il.BasicBlock) {
		a = fn.Meta.DeclareVar(il.KindI32, false, "a")
		t1 = fn.Meta.DeclareVar(il.KindI32, true, "")
		t2 = fn.Meta.DeclareVar(il.KindI32, true, "")
		b.Append(&il.UnaryInstr{Op: il.OpNegate, ResultVar: t1, Operand: il.Variable{ID: a}})
		b.Append(&il.UnaryInstr{Op: il.OpNegate, ResultVar: t2, Operand: il.Variable{ID: t1}})
		b.Append(&il.ReturnInstr{Value: il.Variable{ID: t2}, HasValue: true})
	})

	g := cfg.New(fn)
	g.Build()
	as := &AlgebraicSimplifier{}
	res := as.Run(g, fn, diag.NopLogger{})
	require.Equal(t, Changed, res)

	mv, ok := fn.Block(0).Instr[1].(*il.MoveInstr)
	require.True(t, ok)
	v, ok := il.AsVariable(mv.Src)
	require.True(t, ok)
	require.Equal(t, a, v.ID)
}
