// Package ssa constructs and reduces phi-node SSA form over an
// il.Function, using the dominance structure computed by internal/cfg.
//
// Construction assumes the common pre-SSA convention that named
// (non-temp) variables are only ever read through a LoadInstr and
// written through a StoreInstr; every other instruction's ResultVar is
// already single-assignment by construction (a fresh temp per
// instruction). A parameter-backed local is expected to carry an
// explicit `store v, loadparam N` pair at function entry, the way an
// unoptimized front end would emit it; Build does not special-case
// parameters itself.
package ssa

import (
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/cfg"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

// versioner hands out the next free SSA version per base variable index.
type versioner struct {
	next map[uint32]uint32
}

func newVersioner() *versioner { return &versioner{next: make(map[uint32]uint32)} }

func (v *versioner) alloc(base uint32) uint32 {
	v.next[base]++
	return v.next[base]
}

// Build converts fn to phi-node SSA form in place, using g's already
// computed dominance frontier. Returns an error if fn is already marked
// InSSA.
func Build(g *cfg.Graph, fn *il.Function) error {
	if fn.InSSA {
		return &AlreadySSAError{Func: fn.Name}
	}

	candidates := collectCandidates(fn)
	if len(candidates) == 0 {
		fn.InSSA = true
		return nil
	}

	defBlocks := make(map[uint32]map[int]bool, len(candidates))
	for base := range candidates {
		defBlocks[base] = make(map[int]bool)
	}
	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		for _, instr := range b.Instr {
			st, ok := instr.(*il.StoreInstr)
			if !ok {
				continue
			}
			base := st.Dst.BaseIndex()
			if _, isCandidate := candidates[base]; isCandidate {
				defBlocks[base][b.ID] = true
			}
		}
	}

	type phiKey struct {
		block int
		base  uint32
	}
	phiAt := make(map[phiKey]*il.PhiInstr)
	ver := newVersioner()

	for base, defs := range defBlocks {
		worklist := make([]int, 0, len(defs))
		placed := make(map[int]bool)
		for b := range defs {
			worklist = append(worklist, b)
		}
		for len(worklist) > 0 {
			b := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for _, f := range g.Frontier[b] {
				if placed[f] {
					continue
				}
				placed[f] = true
				fb := fn.Block(f)
				if fb == nil {
					continue
				}
				resultVar := il.NewVarID(base, ver.alloc(base), false)
				phi := &il.PhiInstr{
					ResultVar: resultVar,
					Args:      make([]il.PhiArg, len(fb.Preds)),
				}
				fb.Instr = append([]il.Instruction{phi}, fb.Instr...)
				phiAt[phiKey{f, base}] = phi
				if !defs[f] {
					worklist = append(worklist, f)
				}
			}
		}
	}

	stacks := make(map[uint32][]il.Operand, len(candidates))
	for base, kind := range candidates {
		stacks[base] = []il.Operand{il.Constant{Value: zeroOf(kind)}}
	}

	var renameBlock func(id int)
	renameBlock = func(id int) {
		b := fn.Block(id)
		if b == nil {
			return
		}
		pushed := make(map[uint32]int)
		for _, instr := range b.Instr {
			phi, ok := instr.(*il.PhiInstr)
			if !ok {
				break
			}
			base := phi.ResultVar.BaseIndex()
			stacks[base] = append(stacks[base], il.Variable{ID: phi.ResultVar})
			pushed[base]++
		}

		var rebuilt []il.Instruction
		for _, instr := range b.Instr {
			switch t := instr.(type) {
			case *il.PhiInstr:
				rebuilt = append(rebuilt, t)
			case *il.LoadInstr:
				base := t.Src.BaseIndex()
				cur := top(stacks, base)
				rebuilt = append(rebuilt, &il.MoveInstr{ResultVar: t.ResultVar, Src: cur})
			case *il.StoreInstr:
				base := t.Dst.BaseIndex()
				stacks[base] = append(stacks[base], t.Src)
				pushed[base]++
				// Store itself carries no SSA value of its own; drop it.
			default:
				rebuilt = append(rebuilt, instr)
			}
		}
		b.Instr = rebuilt

		for _, s := range b.Succs {
			sb := fn.Block(s)
			if sb == nil {
				continue
			}
			predIdx := indexOf(sb.Preds, id)
			if predIdx < 0 {
				continue
			}
			for base := range candidates {
				if phi, ok := phiAt[phiKey{s, base}]; ok {
					phi.Args[predIdx] = il.PhiArg{Value: top(stacks, base), Block: id}
				}
			}
		}

		for _, child := range g.DomTree[id] {
			renameBlock(child)
		}

		for base, n := range pushed {
			stacks[base] = stacks[base][:len(stacks[base])-n]
		}
	}

	renameBlock(fn.Entry)
	fn.InSSA = true
	return nil
}

func collectCandidates(fn *il.Function) map[uint32]il.NumberKind {
	out := make(map[uint32]il.NumberKind)
	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		for _, instr := range b.Instr {
			if st, ok := instr.(*il.StoreInstr); ok {
				base := st.Dst.BaseIndex()
				out[base] = fn.Meta.Descriptor(st.Dst).Kind
			}
		}
	}
	return out
}

func top(stacks map[uint32][]il.Operand, base uint32) il.Operand {
	s := stacks[base]
	return s[len(s)-1]
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

func zeroOf(kind il.NumberKind) il.Number {
	if kind.IsFloat() {
		return il.FloatNumber(kind, 0)
	}
	if kind == il.KindBool {
		return il.BoolNumber(false)
	}
	return il.IntNumber(kind, 0)
}

// AlreadySSAError reports an attempt to Build a function that is already
// in SSA form.
type AlreadySSAError struct {
	Func string
}

func (e *AlreadySSAError) Error() string {
	return "ssa: function " + e.Func + " is already in SSA form"
}
