package il

import (
	"fmt"
	"math"
)

// NumberKind tags the representation carried by a Number.
type NumberKind uint8

const (
	KindI8 NumberKind = iota
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindHalf
	KindFloat
	KindDouble
	KindBool
)

func (k NumberKind) String() string {
	switch k {
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindHalf:
		return "half"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	default:
		return "?"
	}
}

func (k NumberKind) IsSigned() bool {
	switch k {
	case KindI8, KindI16, KindI32, KindI64:
		return true
	default:
		return false
	}
}

func (k NumberKind) IsUnsigned() bool {
	switch k {
	case KindU8, KindU16, KindU32, KindU64:
		return true
	default:
		return false
	}
}

func (k NumberKind) IsInteger() bool { return k.IsSigned() || k.IsUnsigned() }

func (k NumberKind) IsFloat() bool {
	switch k {
	case KindHalf, KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

// Number is a tagged-union immediate value. Integers are stored widened
// into Bits (two's complement for signed kinds); floats are stored in
// Float64; bools use Bits==0/1.
type Number struct {
	Kind   NumberKind
	Bits   uint64  // integer / bool payload
	Float  float64 // half/float/double payload
}

func IntNumber(kind NumberKind, v int64) Number {
	return Number{Kind: kind, Bits: uint64(v)}
}

func UintNumber(kind NumberKind, v uint64) Number {
	return Number{Kind: kind, Bits: v}
}

func FloatNumber(kind NumberKind, v float64) Number {
	return Number{Kind: kind, Float: v}
}

func BoolNumber(v bool) Number {
	n := Number{Kind: KindBool}
	if v {
		n.Bits = 1
	}
	return n
}

func (n Number) Bool() bool { return n.Bits != 0 }

// IsZero reports whether the numeric value, irrespective of kind, is zero.
func (n Number) IsZero() bool {
	if n.Kind.IsFloat() {
		return n.Float == 0
	}
	return n.truncated() == 0
}

// IsNonNegative reports whether the value is representable as >= 0. Used
// to gate strength reduction (spec: "only non-negative integer immediates
// qualify").
func (n Number) IsNonNegative() bool {
	if n.Kind.IsUnsigned() {
		return true
	}
	if n.Kind.IsSigned() {
		return n.AsInt64() >= 0
	}
	return false
}

// AsInt64 sign-extends a signed integer Number's bit pattern.
func (n Number) AsInt64() int64 {
	switch n.Kind {
	case KindI8:
		return int64(int8(n.Bits))
	case KindI16:
		return int64(int16(n.Bits))
	case KindI32:
		return int64(int32(n.Bits))
	default:
		return int64(n.Bits)
	}
}

// AsUint64 returns the raw unsigned bit pattern, masked to the kind's width.
func (n Number) AsUint64() uint64 { return n.truncated() }

func (n Number) bitWidth() uint {
	switch n.Kind {
	case KindI8, KindU8:
		return 8
	case KindI16, KindU16:
		return 16
	case KindI32, KindU32:
		return 32
	case KindBool:
		return 1
	default:
		return 64
	}
}

func (n Number) truncated() uint64 {
	w := n.bitWidth()
	if w >= 64 {
		return n.Bits
	}
	return n.Bits & (1<<w - 1)
}

// Equal implements the spec's "two constants compare equal iff kind and
// bit pattern match".
func (n Number) Equal(o Number) bool {
	if n.Kind != o.Kind {
		return false
	}
	if n.Kind.IsFloat() {
		return math.Float64bits(n.Float) == math.Float64bits(o.Float)
	}
	return n.truncated() == o.truncated()
}

func (n Number) String() string {
	switch {
	case n.Kind == KindBool:
		return fmt.Sprintf("%v", n.Bool())
	case n.Kind.IsFloat():
		return fmt.Sprintf("%g%s", n.Float, n.Kind)
	case n.Kind.IsSigned():
		return fmt.Sprintf("%d%s", n.AsInt64(), n.Kind)
	default:
		return fmt.Sprintf("%d%s", n.truncated(), n.Kind)
	}
}

// Cast performs the narrowing/widening conversion described in spec
// §4.4.6.
func Cast(n Number, target NumberKind) Number {
	if target == n.Kind {
		return n
	}
	if target.IsFloat() {
		var f float64
		switch {
		case n.Kind.IsFloat():
			f = n.Float
		case n.Kind.IsSigned():
			f = float64(n.AsInt64())
		case n.Kind == KindBool:
			f = float64(n.Bits)
		default:
			f = float64(n.truncated())
		}
		if target == KindFloat {
			f = float64(float32(f))
		}
		return Number{Kind: target, Float: f}
	}

	var bits uint64
	switch {
	case n.Kind.IsFloat():
		bits = uint64(int64(n.Float))
	case n.Kind == KindBool:
		bits = n.Bits
	case n.Kind.IsSigned():
		bits = uint64(n.AsInt64())
	default:
		bits = n.truncated()
	}
	out := Number{Kind: target, Bits: bits}
	return Number{Kind: target, Bits: out.truncated()}
}

// FoldError reports a trapped arithmetic condition (integer div/mod by
// zero) that folding cannot silently absorb: the caller must route it
// through ILogger and rewrite to a safe form rather than abort.
type FoldError struct {
	Op string
}

func (e *FoldError) Error() string { return fmt.Sprintf("%s by zero", e.Op) }

// FoldBinary evaluates a binary arithmetic/bitwise/comparison op over two
// constants of the same kind per spec §4.4.6. ok is false when the op is
// not foldable (e.g. unknown opcode); err is set for div/mod by zero.
func FoldBinary(op Opcode, l, r Number) (result Number, err error, ok bool) {
	if l.Kind.IsFloat() || r.Kind.IsFloat() {
		return foldFloatBinary(op, l, r)
	}
	return foldIntBinary(op, l, r)
}

func foldIntBinary(op Opcode, l, r Number) (Number, error, bool) {
	kind := l.Kind
	signed := kind.IsSigned()
	a, b := l.AsInt64(), r.AsInt64()
	ua, ub := l.truncated(), r.truncated()

	mk := func(v int64) Number { return Number{Kind: kind, Bits: uint64(v)} }
	mku := func(v uint64) Number { return Number{Kind: kind, Bits: v} }

	switch op {
	case OpAdd:
		if signed {
			return mk(a + b), nil, true
		}
		return mku(ua + ub), nil, true
	case OpSubtract:
		if signed {
			return mk(a - b), nil, true
		}
		return mku(ua - ub), nil, true
	case OpMultiply:
		if signed {
			return mk(a * b), nil, true
		}
		return mku(ua * ub), nil, true
	case OpDivide:
		if r.IsZero() {
			return Number{}, &FoldError{Op: "div"}, false
		}
		if signed {
			return mk(a / b), nil, true
		}
		return mku(ua / ub), nil, true
	case OpModulus:
		if r.IsZero() {
			return Number{}, &FoldError{Op: "mod"}, false
		}
		if signed {
			return mk(a % b), nil, true
		}
		return mku(ua % ub), nil, true
	case OpAnd:
		return mku(ua & ub), nil, true
	case OpOr:
		return mku(ua | ub), nil, true
	case OpXor:
		return mku(ua ^ ub), nil, true
	case OpShiftLeft:
		return mku(ua << (ub & 63)), nil, true
	case OpShiftRight:
		if signed {
			return mk(a >> (ub & 63)), nil, true
		}
		return mku(ua >> (ub & 63)), nil, true
	case OpAndAnd:
		return BoolNumber(l.Bool() && r.Bool()), nil, true
	case OpOrOr:
		return BoolNumber(l.Bool() || r.Bool()), nil, true
	case OpEqual:
		return BoolNumber(l.Equal(r)), nil, true
	case OpNotEqual:
		return BoolNumber(!l.Equal(r)), nil, true
	case OpLessThan:
		if signed {
			return BoolNumber(a < b), nil, true
		}
		return BoolNumber(ua < ub), nil, true
	case OpLessEqual:
		if signed {
			return BoolNumber(a <= b), nil, true
		}
		return BoolNumber(ua <= ub), nil, true
	case OpGreaterThan:
		if signed {
			return BoolNumber(a > b), nil, true
		}
		return BoolNumber(ua > ub), nil, true
	case OpGreaterEqual:
		if signed {
			return BoolNumber(a >= b), nil, true
		}
		return BoolNumber(ua >= ub), nil, true
	default:
		return Number{}, nil, false
	}
}

func foldFloatBinary(op Opcode, l, r Number) (Number, error, bool) {
	a, b := floatOf(l), floatOf(r)
	kind := l.Kind
	if !kind.IsFloat() {
		kind = r.Kind
	}
	switch op {
	case OpAdd:
		return FloatNumber(kind, a+b), nil, true
	case OpSubtract:
		return FloatNumber(kind, a-b), nil, true
	case OpMultiply:
		return FloatNumber(kind, a*b), nil, true
	case OpDivide:
		return FloatNumber(kind, a/b), nil, true
	case OpEqual:
		return BoolNumber(a == b), nil, true
	case OpNotEqual:
		return BoolNumber(a != b), nil, true
	case OpLessThan:
		return BoolNumber(a < b), nil, true
	case OpLessEqual:
		return BoolNumber(a <= b), nil, true
	case OpGreaterThan:
		return BoolNumber(a > b), nil, true
	case OpGreaterEqual:
		return BoolNumber(a >= b), nil, true
	default:
		return Number{}, nil, false
	}
}

func floatOf(n Number) float64 {
	if n.Kind.IsFloat() {
		return n.Float
	}
	if n.Kind.IsSigned() {
		return float64(n.AsInt64())
	}
	return float64(n.truncated())
}

// FoldUnary evaluates Negate/LogicalNot/BitwiseNot over a constant.
func FoldUnary(op Opcode, v Number) (Number, bool) {
	switch op {
	case OpNegate:
		if v.Kind.IsFloat() {
			return FloatNumber(v.Kind, -v.Float), true
		}
		return Number{Kind: v.Kind, Bits: uint64(-v.AsInt64())}, true
	case OpLogicalNot:
		return BoolNumber(!v.Bool()), true
	case OpBitwiseNot:
		return Number{Kind: v.Kind, Bits: ^v.truncated()}, true
	default:
		return Number{}, false
	}
}
