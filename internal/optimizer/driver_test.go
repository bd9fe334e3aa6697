package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/config"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/ilfmt"
)

const crossSCCSource = `
func callee(x: i32) -> i32 {
b0:
  %v0 = loadparam 0
  %t0 = mul %v0, %v0
  return %t0
}

func caller() -> i32 {
b0:
  storeparam 0, 3i32
  %t0 = call @callee/1
  return %t0
}
`

func TestDriverInlinesAcrossSCCsThenFoldsToConstant(t *testing.T) {
	mod, err := ilfmt.ParseModule("test.il", crossSCCSource)
	require.NoError(t, err)

	logger := &diag.CollectingLogger{}
	d := NewDriver(config.OptimizerConfig{Parallel: true}, logger)
	results := d.Run(mod)

	for _, r := range results {
		require.NoError(t, r.Err, r.Name)
	}

	caller, ok := mod.FunctionByName("caller")
	require.True(t, ok)
	b0 := caller.Block(0)
	require.NotNil(t, b0)
	require.Len(t, b0.Instr, 1, "inlining + the second fixed point should collapse caller to a single return")

	ret, ok := b0.Instr[0].(*il.ReturnInstr)
	require.True(t, ok)
	require.True(t, ret.HasValue)
	c, ok := il.AsConstant(ret.Value)
	require.True(t, ok)
	require.Equal(t, int64(9), c.Value.AsInt64())

	for _, instr := range b0.Instr {
		_, isCall := instr.(*il.CallInstr)
		require.False(t, isCall, "the call to callee should have been spliced away")
	}
}

const crossSCCVariableSource = `
func callee(x: i32) -> i32 {
b0:
  %v0 = loadparam 0
  %t0 = mul %v0, %v0
  return %t0
}

func caller(y: i32) -> i32 {
b0:
  %v0 = loadparam 0
  %t0 = add %v0, 1i32
  storeparam 0, %t0
  %t1 = call @callee/1
  return %t1
}
`

func TestDriverInlinesWithVariableArgument(t *testing.T) {
	mod, err := ilfmt.ParseModule("test.il", crossSCCVariableSource)
	require.NoError(t, err)

	d := NewDriver(config.Default(), diag.NopLogger{})
	results := d.Run(mod)
	for _, r := range results {
		require.NoError(t, r.Err, r.Name)
	}

	caller, ok := mod.FunctionByName("caller")
	require.True(t, ok)

	var sawCall, sawMul bool
	caller.Walk(func(b *il.BasicBlock, idx int, instr il.Instruction) {
		switch in := instr.(type) {
		case *il.CallInstr:
			sawCall = true
		case *il.BinaryInstr:
			if in.Op == il.OpMultiply {
				sawMul = true
			}
		}
	})
	require.False(t, sawCall, "the call to callee should have been spliced away")
	require.True(t, sawMul, "the inlined (y+1)*(y+1) multiply survives since y is not a compile-time constant")
}

const selfRecursiveSource = `
func fact(n: i32) -> i32 {
b0:
  %v0 = loadparam 0
  %t0 = eq %v0, 0i32
  jz %t0, b1, b2
b1:
  return 1i32
b2:
  %t1 = sub %v0, 1i32
  storeparam 0, %t1
  %t2 = call @fact/1
  %t3 = mul %v0, %t2
  return %t3
}
`

func TestDriverPreservesSelfRecursiveCall(t *testing.T) {
	mod, err := ilfmt.ParseModule("test.il", selfRecursiveSource)
	require.NoError(t, err)

	d := NewDriver(config.Default(), diag.NopLogger{})
	results := d.Run(mod)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	fact, ok := mod.FunctionByName("fact")
	require.True(t, ok)

	var sawCall bool
	fact.Walk(func(b *il.BasicBlock, idx int, instr il.Instruction) {
		if call, ok := instr.(*il.CallInstr); ok {
			sawCall = true
			require.Equal(t, "fact", call.Callee.Name)
		}
	})
	require.True(t, sawCall, "a self-recursive call must never be inlined away")
}

const branchFoldSource = `
func pick() -> i32 {
b0:
  %v0 = move true
  jz %v0, b1, b2
b1:
  return 10i32
b2:
  return 20i32
}
`

func TestDriverFoldsConstantBranch(t *testing.T) {
	mod, err := ilfmt.ParseModule("test.il", branchFoldSource)
	require.NoError(t, err)

	d := NewDriver(config.Default(), diag.NopLogger{})
	results := d.Run(mod)
	require.NoError(t, results[0].Err)

	fn := mod.Functions[0]
	live := fn.LiveBlocks()
	require.Len(t, live, 1, "algebraic simplification should fold the constant branch down to one block")

	ret, ok := fn.Block(live[0]).Instr[len(fn.Block(live[0]).Instr)-1].(*il.ReturnInstr)
	require.True(t, ok)
	c, ok := il.AsConstant(ret.Value)
	require.True(t, ok)
	require.Equal(t, int64(20), c.Value.AsInt64())
}

func TestDriverIsDeterministicAcrossParallelAndSerial(t *testing.T) {
	src := crossSCCSource

	runOnce := func(parallel bool) string {
		mod, err := ilfmt.ParseModule("test.il", src)
		require.NoError(t, err)
		d := NewDriver(config.OptimizerConfig{Parallel: parallel}, diag.NopLogger{})
		results := d.Run(mod)
		for _, r := range results {
			require.NoError(t, r.Err)
		}
		return il.NewPrinter().PrintModule(mod)
	}

	require.Equal(t, runOnce(true), runOnce(false))
}

func TestDriverSkipsDeclarationOnlyFunctions(t *testing.T) {
	mod := il.NewModule()
	mod.AddFunction(&il.Function{Name: "extern_only"})

	d := NewDriver(config.Default(), diag.NopLogger{})
	results := d.Run(mod)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
}
