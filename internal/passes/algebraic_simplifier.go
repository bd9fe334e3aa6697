package passes

import (
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/cfg"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

// AlgebraicSimplifier rewrites identities (x+0, x*1, x*0, x-x, 0-x,
// x/1, x/x, 0/x, 0%x, x^x, x^0, x&0, x&x, x|0, x|x, && and || with a
// constant side, double negation, self-comparisons, division by constant
// zero) to cheaper (or safe) forms, and folds a CondJump whose condition is a
// known constant into an unconditional Jump, unlinking and removing the
// now-dead arm and merging the resulting straight-line block pair.
// Branch folding changes CFG shape, so it reports Rerun rather than
// Changed. Grounded on spec §4.4.2 and on
// original_source/src/optimizers/algebraic_simplifier.cpp's Visit,
// whose per-opcode IsZero/IsOne checks this mirrors instruction for
// instruction.
type AlgebraicSimplifier struct{}

func (*AlgebraicSimplifier) Name() string { return "algebraic-simplifier" }

func (p *AlgebraicSimplifier) Run(g *cfg.Graph, fn *il.Function, logger diag.ILogger) Result {
	changed := simplifyIdentities(fn, logger)
	if simplifyDoubleNegation(fn) {
		changed = true
	}
	if changed {
		return Changed
	}
	if foldBranches(g, fn) {
		return Rerun
	}
	return None
}

// simplifyDoubleNegation rewrites `b = neg a; c = neg b` (and the
// bitwise-not/logical-not analogues) to `c = move a`, using a same-
// function def map the way constant_folder.go's reassociate does.
func simplifyDoubleNegation(fn *il.Function) bool {
	defOf := make(map[il.VarID]*il.UnaryInstr)
	fn.Walk(func(b *il.BasicBlock, idx int, instr il.Instruction) {
		if u, ok := instr.(*il.UnaryInstr); ok {
			defOf[u.ResultVar] = u
		}
	})

	changed := false
	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		for idx, instr := range b.Instr {
			outer, ok := instr.(*il.UnaryInstr)
			if !ok {
				continue
			}
			v, ok := il.AsVariable(outer.Operand)
			if !ok {
				continue
			}
			inner, ok := defOf[v.ID]
			if !ok || inner.Op != outer.Op {
				continue
			}
			b.Instr[idx] = move(outer.ResultVar, inner.Operand)
			changed = true
		}
	}
	return changed
}

func simplifyIdentities(fn *il.Function, logger diag.ILogger) bool {
	changed := false
	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		for idx, instr := range b.Instr {
			if repl, ok := identityOf(fn, instr, logger); ok {
				b.Instr[idx] = repl
				changed = true
			}
		}
	}
	return changed
}

func identityOf(fn *il.Function, instr il.Instruction, logger diag.ILogger) (il.Instruction, bool) {
	bin, ok := instr.(*il.BinaryInstr)
	if !ok {
		return nil, false
	}

	lc, lIsConst := il.AsConstant(bin.Left)
	rc, rIsConst := il.AsConstant(bin.Right)
	sameOperand := operandsEqual(bin.Left, bin.Right)

	switch bin.Op {
	case il.OpAdd:
		if rIsConst && rc.Value.IsZero() {
			return move(bin.ResultVar, bin.Left), true
		}
		if lIsConst && lc.Value.IsZero() {
			return move(bin.ResultVar, bin.Right), true
		}
	case il.OpSubtract:
		if lIsConst && lc.Value.IsZero() {
			// 0-x: the original rewrites this to a Move of the right
			// operand rather than negating it (algebraic_simplifier.cpp's
			// ConvertMoveRight), so this matches that exactly.
			return move(bin.ResultVar, bin.Right), true
		}
		if rIsConst && rc.Value.IsZero() {
			return move(bin.ResultVar, bin.Left), true
		}
		if sameOperand {
			return move(bin.ResultVar, il.Constant{Value: zeroOfKind(operandKind(fn, bin.Left))}), true
		}
	case il.OpModulus:
		if lIsConst && lc.Value.IsZero() {
			return move(bin.ResultVar, il.Constant{Value: zeroOfKind(operandKind(fn, bin.Left))}), true
		}
	case il.OpMultiply:
		if rIsConst && rc.Value.IsZero() {
			return move(bin.ResultVar, bin.Right), true
		}
		if lIsConst && lc.Value.IsZero() {
			return move(bin.ResultVar, bin.Left), true
		}
		if rIsConst && isOne(rc.Value) {
			return move(bin.ResultVar, bin.Left), true
		}
		if lIsConst && isOne(lc.Value) {
			return move(bin.ResultVar, bin.Right), true
		}
	case il.OpDivide:
		if lIsConst && lc.Value.IsZero() {
			return move(bin.ResultVar, bin.Left), true // 0/x -> 0
		}
		if rIsConst && rc.Value.IsZero() {
			logger.Log(diag.Diagnostic{
				Severity: diag.SeverityWarn,
				Func:     fn.Name,
				Message:  "division by constant zero detected during folding; rewritten to a safe form",
			})
			return move(bin.ResultVar, bin.Left), true // x/0 -> x, diagnosed
		}
		if rIsConst && isOne(rc.Value) {
			return move(bin.ResultVar, bin.Left), true
		}
		if sameOperand {
			return move(bin.ResultVar, il.Constant{Value: oneOfKind(operandKind(fn, bin.Left))}), true
		}
	case il.OpXor:
		if sameOperand {
			return move(bin.ResultVar, il.Constant{Value: zeroOfKind(operandKind(fn, bin.Left))}), true
		}
		if rIsConst && rc.Value.IsZero() {
			return move(bin.ResultVar, bin.Left), true
		}
	case il.OpAnd:
		if rIsConst && rc.Value.IsZero() {
			return move(bin.ResultVar, bin.Right), true
		}
		if sameOperand {
			return move(bin.ResultVar, bin.Left), true
		}
	case il.OpOr:
		if rIsConst && rc.Value.IsZero() {
			return move(bin.ResultVar, bin.Left), true
		}
		if sameOperand {
			return move(bin.ResultVar, bin.Left), true
		}
	case il.OpAndAnd:
		if rIsConst {
			if rc.Value.Bool() {
				return move(bin.ResultVar, bin.Left), true
			}
			return move(bin.ResultVar, il.Constant{Value: il.BoolNumber(false)}), true
		}
		if lIsConst {
			if lc.Value.Bool() {
				return move(bin.ResultVar, bin.Right), true
			}
			return move(bin.ResultVar, il.Constant{Value: il.BoolNumber(false)}), true
		}
	case il.OpOrOr:
		if rIsConst {
			if !rc.Value.Bool() {
				return move(bin.ResultVar, bin.Left), true
			}
			return move(bin.ResultVar, il.Constant{Value: il.BoolNumber(true)}), true
		}
		if lIsConst {
			if !lc.Value.Bool() {
				return move(bin.ResultVar, bin.Right), true
			}
			return move(bin.ResultVar, il.Constant{Value: il.BoolNumber(true)}), true
		}
	case il.OpEqual:
		if sameOperand {
			return move(bin.ResultVar, il.Constant{Value: il.BoolNumber(true)}), true
		}
	case il.OpNotEqual:
		if sameOperand {
			return move(bin.ResultVar, il.Constant{Value: il.BoolNumber(false)}), true
		}
	}
	return nil, false
}

func move(result il.VarID, src il.Operand) il.Instruction {
	return &il.MoveInstr{ResultVar: result, Src: src}
}

func isOne(n il.Number) bool {
	if n.Kind.IsFloat() {
		return n.Float == 1
	}
	if n.Kind.IsSigned() {
		return n.AsInt64() == 1
	}
	return n.AsUint64() == 1
}

// operandKind resolves an operand's NumberKind for synthesizing a
// correctly-typed zero constant, consulting the variable descriptor
// arena when op isn't itself a Constant.
func operandKind(fn *il.Function, op il.Operand) il.NumberKind {
	if c, ok := il.AsConstant(op); ok {
		return c.Value.Kind
	}
	if v, ok := il.AsVariable(op); ok {
		return fn.Meta.Descriptor(v.ID).Kind
	}
	return il.KindI32
}

func zeroOfKind(kind il.NumberKind) il.Number {
	if kind.IsFloat() {
		return il.FloatNumber(kind, 0)
	}
	if kind == il.KindBool {
		return il.BoolNumber(false)
	}
	return il.IntNumber(kind, 0)
}

func oneOfKind(kind il.NumberKind) il.Number {
	if kind.IsFloat() {
		return il.FloatNumber(kind, 1)
	}
	if kind == il.KindBool {
		return il.BoolNumber(true)
	}
	return il.IntNumber(kind, 1)
}

func operandsEqual(a, b il.Operand) bool {
	av, aok := il.AsVariable(a)
	bv, bok := il.AsVariable(b)
	if aok && bok {
		return av.ID == bv.ID
	}
	ac, acok := il.AsConstant(a)
	bc, bcok := il.AsConstant(b)
	if acok && bcok {
		return ac.Value.Equal(bc.Value)
	}
	return false
}

// foldBranches rewrites any CondJump whose condition is a known Constant
// into an unconditional Jump to the taken arm, then unlinks the dead arm,
// removes it if it becomes unreachable, and merges straight-line pairs
// left behind. Returns true if it changed CFG shape.
func foldBranches(g *cfg.Graph, fn *il.Function) bool {
	changed := false
	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		cj, ok := b.Terminator().(*il.CondJumpInstr)
		if !ok {
			continue
		}
		c, ok := il.AsConstant(cj.Cond)
		if !ok {
			continue
		}
		isZero := c.Value.IsZero()
		takeTaken := (cj.Op == il.OpJumpZero) == isZero
		target := cj.FallthruBlock
		dead := cj.TakenBlock
		if takeTaken {
			target, dead = cj.TakenBlock, cj.FallthruBlock
		}

		b.Instr[len(b.Instr)-1] = &il.JumpInstr{Target: target}
		g.Unlink(b.ID, dead)
		changed = true

		if db := fn.Block(dead); db != nil && len(db.Preds) == 0 {
			g.RemoveNode(dead)
		}
	}

	if !changed {
		return false
	}

	g.RebuildDomTree()
	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		if len(b.Succs) == 1 {
			g.MergeNodes(b.ID, b.Succs[0])
		}
	}
	return true
}
