// Package inline implements cross-function inlining driven by the call
// graph's SCC order: a single call site is spliced into its caller's
// block, the callee's instructions cloned and remapped into the
// caller's variable space.
package inline

import (
	"fmt"

	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

// Site identifies one call instruction to inline: the block and
// instruction index of the Call within the caller.
type Site struct {
	Block    int
	InstrIdx int
}

// mapper owns the two renaming tables built while splicing one callee
// into one caller, grounded on the (commented-out) reference
// FunctionInliner::registerMap/variableMap in function_inliner.cpp,
// generalized from register+variable to this IR's single VarID space.
type mapper struct {
	caller, callee *il.Function
	baseVarMap     map[uint32]uint32 // callee base id -> caller base id
	varIDMap       map[il.VarID]il.VarID
}

func newMapper(caller, callee *il.Function) *mapper {
	return &mapper{
		caller:     caller,
		callee:     callee,
		baseVarMap: make(map[uint32]uint32),
		varIDMap:   make(map[il.VarID]il.VarID),
	}
}

// remapVarID returns the caller-space id corresponding to a callee
// VarID, registering a fresh caller variable (cloned descriptor) the
// first time a given callee base id is seen.
func (m *mapper) remapVarID(id il.VarID) il.VarID {
	if mapped, ok := m.varIDMap[id]; ok {
		return mapped
	}
	base := id.BaseIndex()
	newBase, ok := m.baseVarMap[base]
	if !ok {
		desc := m.callee.Meta.Descriptor(id.Base())
		newID := m.caller.Meta.DeclareVar(desc.Kind, desc.Temp, desc.Name)
		newBase = newID.BaseIndex()
		m.baseVarMap[base] = newBase
	}
	mapped := il.NewVarID(newBase, id.Version(), id.IsTemp())
	m.varIDMap[id] = mapped
	return mapped
}

func (m *mapper) remapOperand(op il.Operand) il.Operand {
	if v, ok := il.AsVariable(op); ok {
		return il.Variable{ID: m.remapVarID(v.ID)}
	}
	return op
}

// InlineAt splices callee into caller at site, per the contract:
//  1. scan backward from the call for its StoreParam arguments, removing
//     them;
//  2. walk callee's single block, translating LoadParam to a Move from
//     a constant argument (a variable argument is aliased directly, with
//     no instruction emitted), Return to a Move into the call's result,
//     and every other instruction to a remapped clone;
//  3. delete the original Call.
//
// Precondition: callee has exactly one live block ending in at most one
// Return (the guaranteed shape after the optimizer removes unreachable
// blocks and folds branches); violating this raises
// diag.CodeInlinePrecondition.
func InlineAt(caller, callee *il.Function, site Site, logger diag.ILogger) error {
	b := caller.Block(site.Block)
	if b == nil {
		return diag.NewInvariant(diag.CodeInlinePrecondition, caller.Name, "inline site references dead or missing block %d", site.Block)
	}
	call, ok := b.Instr[site.InstrIdx].(*il.CallInstr)
	if !ok {
		return diag.NewInvariant(diag.CodeInlinePrecondition, caller.Name, "inline site %d is not a Call instruction", site.InstrIdx)
	}

	live := callee.LiveBlocks()
	if len(live) != 1 {
		return diag.NewInvariant(diag.CodeInlinePrecondition, callee.Name, "callee has %d live blocks, inliner requires exactly one", len(live))
	}
	calleeBlock := callee.Block(live[0])

	returnCount := 0
	for _, instr := range calleeBlock.Instr {
		if _, ok := instr.(*il.ReturnInstr); ok {
			returnCount++
		}
	}
	if returnCount > 1 {
		return diag.NewInvariant(diag.CodeInlinePrecondition, callee.Name, "callee has %d Return instructions, inliner requires at most one", returnCount)
	}

	params, removed, err := collectAndRemoveStoreParams(b, site.InstrIdx)
	if err != nil {
		return err
	}

	m := newMapper(caller, callee)
	callSiteIdx := site.InstrIdx - removed

	for _, instr := range calleeBlock.Instr {
		switch in := instr.(type) {
		case *il.LoadParamInstr:
			arg, ok := params[in.Index]
			if !ok {
				return diag.NewInvariant(diag.CodeInlinePrecondition, callee.Name, "no StoreParam captured for parameter %d", in.Index)
			}
			dst := m.remapVarID(in.ResultVar)
			if c, ok := il.AsConstant(arg); ok {
				b.InsertInstrAt(callSiteIdx, &il.MoveInstr{ResultVar: dst, Src: c})
				callSiteIdx++
			} else if v, ok := il.AsVariable(arg); ok {
				// No instruction needed: later uses of the callee's
				// param variable resolve straight to the caller's
				// argument variable.
				m.varIDMap[in.ResultVar] = v.ID
			} else {
				return diag.NewInvariant(diag.CodeInlinePrecondition, callee.Name, "unsupported StoreParam source kind for parameter %d", in.Index)
			}

		case *il.ReturnInstr:
			if in.HasValue && call.HasResult {
				b.InsertInstrAt(callSiteIdx, &il.MoveInstr{ResultVar: call.ResultVar, Src: m.remapOperand(in.Value)})
				callSiteIdx++
			}

		default:
			clone := cloneInstr(instr)
			ops := clone.Operands()
			for i, op := range ops {
				ops[i] = m.remapOperand(op)
			}
			clone.SetOperands(ops)
			if ri, ok := clone.(il.ResultInstr); ok {
				if orig, hasResult := instr.(il.ResultInstr); hasResult {
					origVar, _ := orig.Result()
					ri.SetResult(m.remapVarID(origVar))
				}
			}
			b.InsertInstrAt(callSiteIdx, clone)
			callSiteIdx++
		}
	}

	b.RemoveInstrAt(callSiteIdx)
	logger.Log(diag.Diagnostic{Severity: diag.SeverityInfo, Func: caller.Name, Message: fmt.Sprintf("inlined %s into %s", callee.Name, caller.Name)})
	return nil
}

// collectAndRemoveStoreParams scans backward from callIdx over the
// contiguous run of StoreParam instructions that precede the call,
// capturing each parameter's source operand and removing the
// instruction, per the inliner contract's step 1.
func collectAndRemoveStoreParams(b *il.BasicBlock, callIdx int) (map[int]il.Operand, int, error) {
	params := make(map[int]il.Operand)
	i := callIdx - 1
	for i >= 0 {
		sp, ok := b.Instr[i].(*il.StoreParamInstr)
		if !ok {
			break
		}
		if _, isVar := il.AsVariable(sp.Src); !isVar {
			if _, isConst := il.AsConstant(sp.Src); !isConst {
				return nil, 0, diag.NewInvariant(diag.CodeInlinePrecondition, "", "unsupported StoreParam source kind at index %d", i)
			}
		}
		params[sp.Index] = sp.Src
		i--
	}
	first := i + 1
	removed := callIdx - first
	for idx := callIdx - 1; idx >= first; idx-- {
		b.RemoveInstrAt(idx)
	}
	return params, removed, nil
}

// cloneInstr makes a shallow value copy of instr's concrete type so the
// original callee instruction is left untouched (the driver must not
// mutate a callee while it's being inlined elsewhere).
func cloneInstr(instr il.Instruction) il.Instruction {
	switch in := instr.(type) {
	case *il.BinaryInstr:
		c := *in
		return &c
	case *il.UnaryInstr:
		c := *in
		return &c
	case *il.MoveInstr:
		c := *in
		return &c
	case *il.CastInstr:
		c := *in
		return &c
	case *il.LoadInstr:
		c := *in
		return &c
	case *il.StoreInstr:
		c := *in
		return &c
	case *il.CallInstr:
		c := *in
		return &c
	case *il.JumpInstr:
		c := *in
		return &c
	case *il.CondJumpInstr:
		c := *in
		return &c
	case *il.PhiInstr:
		c := *in
		c.Args = append([]il.PhiArg(nil), in.Args...)
		return &c
	default:
		panic(fmt.Sprintf("inline: unhandled instruction type %T", instr))
	}
}
