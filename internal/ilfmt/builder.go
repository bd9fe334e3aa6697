package ilfmt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

var kindByName = map[string]il.NumberKind{
	"i8": il.KindI8, "i16": il.KindI16, "i32": il.KindI32, "i64": il.KindI64,
	"u8": il.KindU8, "u16": il.KindU16, "u32": il.KindU32, "u64": il.KindU64,
	"half": il.KindHalf, "float": il.KindFloat, "double": il.KindDouble,
	"bool": il.KindBool,
}

var binaryOps = map[string]il.Opcode{
	"add": il.OpAdd, "sub": il.OpSubtract, "mul": il.OpMultiply, "div": il.OpDivide,
	"mod": il.OpModulus, "and": il.OpAnd, "or": il.OpOr, "xor": il.OpXor,
	"shl": il.OpShiftLeft, "shr": il.OpShiftRight, "andand": il.OpAndAnd, "oror": il.OpOrOr,
	"eq": il.OpEqual, "ne": il.OpNotEqual, "lt": il.OpLessThan, "le": il.OpLessEqual,
	"gt": il.OpGreaterThan, "ge": il.OpGreaterEqual,
}

var unaryOps = map[string]il.Opcode{
	"neg": il.OpNegate, "lnot": il.OpLogicalNot, "not": il.OpBitwiseNot,
}

func parseKind(name string) (il.NumberKind, error) {
	k, ok := kindByName[name]
	if !ok {
		return 0, fmt.Errorf("ilfmt: unknown numeric kind %q", name)
	}
	return k, nil
}

// BuildModule converts a parsed File into an il.Module, declaring a
// fresh base variable the first time each textual var token is seen and
// inferring its NumberKind from the instruction that defines it.
func BuildModule(f *File) (*il.Module, error) {
	mod := il.NewModule()
	for _, fd := range f.Functions {
		fn, err := buildFunction(fd)
		if err != nil {
			return nil, err
		}
		mod.AddFunction(fn)
	}
	return mod, resolveCallees(mod)
}

// resolveCallees fills in every CallInstr's Callee.FuncID by name, a
// second pass over the whole module because a call can name a function
// that appears later in the source (mutual recursion, forward calls).
func resolveCallees(mod *il.Module) error {
	for _, fn := range mod.Functions {
		for _, b := range fn.Blocks {
			for _, instr := range b.Instr {
				call, ok := instr.(*il.CallInstr)
				if !ok {
					continue
				}
				callee, found := mod.FunctionByName(call.Callee.Name)
				if !found {
					return fmt.Errorf("ilfmt: call to undeclared function %q in %s", call.Callee.Name, fn.Name)
				}
				call.Callee.FuncID = callee.ID
			}
		}
	}
	return nil
}

type funcBuilder struct {
	fn       *il.Function
	vars     map[string]il.VarID // base token ("%v0") -> declared base VarID
	labelIdx map[string]int      // block label -> fn.Blocks index
}

func buildFunction(fd *FuncDecl) (*il.Function, error) {
	fn := &il.Function{Name: fd.Name}
	for _, p := range fd.Params {
		kind, err := parseKind(p.Kind)
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, il.ParamInfo{Kind: kind, Name: p.Name})
	}
	if fd.Ret != nil {
		kind, err := parseKind(*fd.Ret)
		if err != nil {
			return nil, err
		}
		fn.ReturnKind = kind
		fn.HasReturn = true
	}

	fb := &funcBuilder{fn: fn, vars: make(map[string]il.VarID), labelIdx: make(map[string]int)}
	for _, bd := range fd.Blocks {
		b := fn.NewBlock()
		fb.labelIdx[bd.Label] = b.ID
	}
	if len(fn.Blocks) > 0 {
		fn.Entry = fn.Blocks[0].ID
	}

	for i, bd := range fd.Blocks {
		b := fn.Blocks[i]
		for _, in := range bd.Instrs {
			instr, err := fb.buildInstr(in)
			if err != nil {
				return nil, fmt.Errorf("function %s, block %s: %w", fd.Name, bd.Label, err)
			}
			b.Append(instr)
		}
	}
	fn.Meta.RescanCalls(fn)
	return fn, nil
}

func splitVarToken(tok string) (base string, version uint32) {
	at := strings.IndexByte(tok, '@')
	if at < 0 {
		return tok, 0
	}
	v, _ := strconv.ParseUint(tok[at+1:], 10, 32)
	return tok[:at], uint32(v)
}

// resolveVar looks up or declares the base variable named by tok,
// defaulting newly declared variables to kind, then applies tok's
// version suffix (if any).
func (fb *funcBuilder) resolveVar(tok string, kind il.NumberKind) il.VarID {
	base, version := splitVarToken(tok)
	id, ok := fb.vars[base]
	if !ok {
		temp := strings.HasPrefix(base, "%t")
		id = fb.fn.Meta.DeclareVar(kind, temp, base)
		fb.vars[base] = id
	}
	return id.WithVersion(version)
}

// operandKindHint guesses the NumberKind an operand carries, for seeding
// a freshly declared result variable: a constant's own kind, or an
// already-declared variable's descriptor kind. Defaults to KindI32 for
// anything else (labels, not-yet-declared variables, func refs).
func (fb *funcBuilder) operandKindHint(o *Operand) il.NumberKind {
	switch {
	case o.Num != nil:
		n, err := parseNumber(*o.Num)
		if err == nil {
			return n.Kind
		}
	case o.Bool != nil:
		return il.KindBool
	case o.Var != nil:
		base, _ := splitVarToken(*o.Var)
		if id, ok := fb.vars[base]; ok {
			return fb.fn.Meta.Descriptor(id).Kind
		}
	}
	return il.KindI32
}

func (fb *funcBuilder) operand(o *Operand) (il.Operand, error) {
	switch {
	case o.Var != nil:
		return il.Variable{ID: fb.resolveVar(*o.Var, il.KindI32)}, nil
	case o.Num != nil:
		n, err := parseNumber(*o.Num)
		if err != nil {
			return nil, err
		}
		return il.Constant{Value: n}, nil
	case o.Bool != nil:
		return il.Constant{Value: il.BoolNumber(*o.Bool == "true")}, nil
	case o.Func != nil:
		return il.FuncRef{Name: o.Func.Name}, nil
	case o.Int != nil:
		v, _ := strconv.ParseInt(*o.Int, 10, 64)
		return il.Constant{Value: il.IntNumber(il.KindI32, v)}, nil
	default:
		return nil, fmt.Errorf("ilfmt: operand has no recognized variant")
	}
}

func parseNumber(tok string) (il.Number, error) {
	for name, kind := range kindByName {
		if strings.HasSuffix(tok, name) {
			lit := strings.TrimSuffix(tok, name)
			if kind.IsFloat() {
				f, err := strconv.ParseFloat(lit, 64)
				if err != nil {
					return il.Number{}, err
				}
				return il.FloatNumber(kind, f), nil
			}
			if kind.IsSigned() {
				v, err := strconv.ParseInt(lit, 10, 64)
				if err != nil {
					return il.Number{}, err
				}
				return il.IntNumber(kind, v), nil
			}
			v, err := strconv.ParseUint(lit, 10, 64)
			if err != nil {
				return il.Number{}, err
			}
			return il.UintNumber(kind, v), nil
		}
	}
	return il.Number{}, fmt.Errorf("ilfmt: malformed numeric literal %q", tok)
}

func (fb *funcBuilder) blockID(label string) (int, error) {
	id, ok := fb.labelIdx[label]
	if !ok {
		return 0, diag.NewInvariant(diag.CodeMalformedCFG, fb.fn.Name, "reference to undeclared block label %q", label)
	}
	return id, nil
}

func (fb *funcBuilder) buildInstr(in *Instr) (il.Instruction, error) {
	if op, ok := binaryOps[in.Op]; ok {
		return fb.buildBinary(in, op)
	}
	if op, ok := unaryOps[in.Op]; ok {
		return fb.buildUnary(in, op)
	}
	switch in.Op {
	case "move":
		return fb.buildMove(in)
	case "cast":
		return fb.buildCast(in)
	case "load":
		return fb.buildLoad(in)
	case "store":
		return fb.buildStore(in)
	case "loadparam":
		return fb.buildLoadParam(in)
	case "storeparam":
		return fb.buildStoreParam(in)
	case "call":
		return fb.buildCall(in)
	case "jump":
		return fb.buildJump(in)
	case "jz", "jnz":
		return fb.buildCondJump(in)
	case "return":
		return fb.buildReturn(in)
	case "phi":
		return fb.buildPhi(in)
	default:
		return nil, diag.NewInvariant(diag.CodeUnknownOpcode, fb.fn.Name, "unrecognized opcode %q", in.Op)
	}
}

func (fb *funcBuilder) buildBinary(in *Instr, op il.Opcode) (il.Instruction, error) {
	if in.Result == nil || len(in.Operands) != 2 {
		return nil, fmt.Errorf("%q requires a result and two operands", in.Op)
	}
	left, err := fb.operand(in.Operands[0])
	if err != nil {
		return nil, err
	}
	right, err := fb.operand(in.Operands[1])
	if err != nil {
		return nil, err
	}
	kind := fb.operandKindHint(in.Operands[0])
	if op == il.OpEqual || op == il.OpNotEqual || op == il.OpLessThan || op == il.OpLessEqual ||
		op == il.OpGreaterThan || op == il.OpGreaterEqual || op == il.OpAndAnd || op == il.OpOrOr {
		kind = il.KindBool
	}
	return &il.BinaryInstr{Op: op, ResultVar: fb.resolveVar(*in.Result, kind), Left: left, Right: right}, nil
}

func (fb *funcBuilder) buildUnary(in *Instr, op il.Opcode) (il.Instruction, error) {
	if in.Result == nil || len(in.Operands) != 1 {
		return nil, fmt.Errorf("%q requires a result and one operand", in.Op)
	}
	val, err := fb.operand(in.Operands[0])
	if err != nil {
		return nil, err
	}
	kind := fb.operandKindHint(in.Operands[0])
	if op == il.OpLogicalNot {
		kind = il.KindBool
	}
	return &il.UnaryInstr{Op: op, ResultVar: fb.resolveVar(*in.Result, kind), Operand: val}, nil
}

func (fb *funcBuilder) buildMove(in *Instr) (il.Instruction, error) {
	if in.Result == nil || len(in.Operands) != 1 {
		return nil, fmt.Errorf("move requires a result and one operand")
	}
	src, err := fb.operand(in.Operands[0])
	if err != nil {
		return nil, err
	}
	return &il.MoveInstr{ResultVar: fb.resolveVar(*in.Result, fb.operandKindHint(in.Operands[0])), Src: src}, nil
}

func (fb *funcBuilder) buildCast(in *Instr) (il.Instruction, error) {
	if in.Result == nil || in.Target == nil || len(in.Operands) != 1 {
		return nil, fmt.Errorf("cast requires a result, a <kind>, and one operand")
	}
	target, err := parseKind(*in.Target)
	if err != nil {
		return nil, err
	}
	src, err := fb.operand(in.Operands[0])
	if err != nil {
		return nil, err
	}
	return &il.CastInstr{ResultVar: fb.resolveVar(*in.Result, target), Target: target, Src: src}, nil
}

func (fb *funcBuilder) buildLoad(in *Instr) (il.Instruction, error) {
	if in.Result == nil || len(in.Operands) != 1 || in.Operands[0].Var == nil {
		return nil, fmt.Errorf("load requires a result and one variable operand")
	}
	srcID := fb.resolveVar(*in.Operands[0].Var, il.KindI32)
	kind := fb.fn.Meta.Descriptor(srcID.Base()).Kind
	return &il.LoadInstr{ResultVar: fb.resolveVar(*in.Result, kind), Src: srcID}, nil
}

func (fb *funcBuilder) buildStore(in *Instr) (il.Instruction, error) {
	if len(in.Operands) != 2 || in.Operands[0].Var == nil {
		return nil, fmt.Errorf("store requires a variable destination and one source operand")
	}
	src, err := fb.operand(in.Operands[1])
	if err != nil {
		return nil, err
	}
	dst := fb.resolveVar(*in.Operands[0].Var, fb.operandKindHint(in.Operands[1]))
	return &il.StoreInstr{Dst: dst, Src: src}, nil
}

func (fb *funcBuilder) buildLoadParam(in *Instr) (il.Instruction, error) {
	if in.Result == nil || len(in.Operands) != 1 || in.Operands[0].Int == nil {
		return nil, fmt.Errorf("loadparam requires a result and one bare index")
	}
	idx, _ := strconv.Atoi(*in.Operands[0].Int)
	kind := il.KindI32
	if idx >= 0 && idx < len(fb.fn.Params) {
		kind = fb.fn.Params[idx].Kind
	}
	return &il.LoadParamInstr{ResultVar: fb.resolveVar(*in.Result, kind), Index: idx}, nil
}

func (fb *funcBuilder) buildStoreParam(in *Instr) (il.Instruction, error) {
	if len(in.Operands) != 2 || in.Operands[0].Int == nil {
		return nil, fmt.Errorf("storeparam requires a bare index and one source operand")
	}
	idx, _ := strconv.Atoi(*in.Operands[0].Int)
	src, err := fb.operand(in.Operands[1])
	if err != nil {
		return nil, err
	}
	return &il.StoreParamInstr{Index: idx, Src: src}, nil
}

func (fb *funcBuilder) buildCall(in *Instr) (il.Instruction, error) {
	if len(in.Operands) != 1 || in.Operands[0].Func == nil {
		return nil, fmt.Errorf("call requires exactly one @callee[/argCount] operand")
	}
	fo := in.Operands[0].Func
	argCount := 0
	if fo.ArgCount != nil {
		argCount, _ = strconv.Atoi(*fo.ArgCount)
	}
	call := &il.CallInstr{Callee: il.FuncRef{Name: fo.Name}, ArgCount: argCount}
	if in.Result != nil {
		call.HasResult = true
		call.ResultVar = fb.resolveVar(*in.Result, il.KindI32)
	}
	return call, nil
}

func (fb *funcBuilder) buildJump(in *Instr) (il.Instruction, error) {
	if len(in.Operands) != 1 || in.Operands[0].Label == nil {
		return nil, fmt.Errorf("jump requires exactly one block label")
	}
	target, err := fb.blockID(*in.Operands[0].Label)
	if err != nil {
		return nil, err
	}
	return &il.JumpInstr{Target: target}, nil
}

func (fb *funcBuilder) buildCondJump(in *Instr) (il.Instruction, error) {
	if len(in.Operands) != 3 || in.Operands[1].Label == nil || in.Operands[2].Label == nil {
		return nil, fmt.Errorf("%s requires a condition and two block labels", in.Op)
	}
	cond, err := fb.operand(in.Operands[0])
	if err != nil {
		return nil, err
	}
	taken, err := fb.blockID(*in.Operands[1].Label)
	if err != nil {
		return nil, err
	}
	fallthru, err := fb.blockID(*in.Operands[2].Label)
	if err != nil {
		return nil, err
	}
	op := il.OpJumpZero
	if in.Op == "jnz" {
		op = il.OpJumpNotZero
	}
	return &il.CondJumpInstr{Op: op, Cond: cond, TakenBlock: taken, FallthruBlock: fallthru}, nil
}

func (fb *funcBuilder) buildReturn(in *Instr) (il.Instruction, error) {
	if len(in.Operands) == 0 {
		return &il.ReturnInstr{}, nil
	}
	if len(in.Operands) != 1 {
		return nil, fmt.Errorf("return takes at most one operand")
	}
	val, err := fb.operand(in.Operands[0])
	if err != nil {
		return nil, err
	}
	return &il.ReturnInstr{Value: val, HasValue: true}, nil
}

func (fb *funcBuilder) buildPhi(in *Instr) (il.Instruction, error) {
	if in.Result == nil || len(in.PhiArgs) == 0 {
		return nil, fmt.Errorf("phi requires a result and at least one incoming edge")
	}
	kind := fb.operandKindHint(in.PhiArgs[0].Value)
	result := fb.resolveVar(*in.Result, kind)
	args := make([]il.PhiArg, len(in.PhiArgs))
	for i, a := range in.PhiArgs {
		val, err := fb.operand(a.Value)
		if err != nil {
			return nil, err
		}
		block, err := fb.blockID(a.Block)
		if err != nil {
			return nil, err
		}
		args[i] = il.PhiArg{Value: val, Block: block}
	}
	return &il.PhiInstr{ResultVar: result, Args: args}, nil
}
