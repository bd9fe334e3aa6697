package ssa

import "github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"

// Reduce takes fn out of phi-node SSA form: every Phi is replaced by
// parallel-copy Moves inserted at the end of each predecessor block (the
// classic out-of-SSA translation), and every SSA-versioned variable id is
// coalesced back down to a small set of physical slots using a free-list
// pool keyed by NumberKind, reusing a slot as soon as its last use in a
// block has been passed. This mirrors the original optimizer's SSA
// reducer, which tracks a per-block last-use index and a freeTemps pool
// indexed by type rather than emitting one physical variable per SSA
// version.
func Reduce(fn *il.Function) {
	if !fn.InSSA {
		return
	}
	erasePhis(fn)
	coalesce(fn)
	fn.InSSA = false
}

// erasePhis removes every Phi instruction, inserting a Move of its
// argument into the phi's result variable at the end of each
// corresponding predecessor block, just before that block's terminator.
func erasePhis(fn *il.Function) {
	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		phis := b.Phis()
		if len(phis) == 0 {
			continue
		}
		for _, phi := range phis {
			for _, arg := range phi.Args {
				pred := fn.Block(arg.Block)
				if pred == nil {
					continue
				}
				insertMoveBeforeTerminator(pred, phi.ResultVar, arg.Value)
			}
		}
		b.Instr = b.Instr[len(phis):]
	}
}

func insertMoveBeforeTerminator(b *il.BasicBlock, result il.VarID, src il.Operand) {
	mv := &il.MoveInstr{ResultVar: result, Src: src}
	if len(b.Instr) == 0 {
		b.Instr = append(b.Instr, mv)
		return
	}
	last := b.Instr[len(b.Instr)-1]
	if last.Opcode().IsTerminator() {
		b.Instr = append(b.Instr[:len(b.Instr)-1], mv, last)
		return
	}
	b.Instr = append(b.Instr, mv)
}

// coalesce remaps every VarID used in fn down to a smaller set of
// physical ids: all versions of a given named (non-temp) base variable
// collapse to that base id, and temps are handed out from a per-kind
// free-list pool that reclaims a slot once the block-local scan passes
// its last use.
func coalesce(fn *il.Function) {
	remap := make(map[il.VarID]il.VarID)

	namedBase := func(id il.VarID) il.VarID {
		b := id.Base()
		if mapped, ok := remap[b]; ok {
			return mapped
		}
		remap[b] = b
		return b
	}

	pools := make(map[il.NumberKind][]il.VarID)
	take := func(kind il.NumberKind) (il.VarID, bool) {
		p := pools[kind]
		if len(p) == 0 {
			return 0, false
		}
		v := p[len(p)-1]
		pools[kind] = p[:len(p)-1]
		return v, true
	}
	release := func(kind il.NumberKind, id il.VarID) {
		pools[kind] = append(pools[kind], id)
	}

	resolve := func(id il.VarID) il.VarID {
		if mapped, ok := remap[id]; ok {
			return mapped
		}
		desc := fn.Meta.Descriptor(id)
		if !desc.Temp {
			return namedBase(id)
		}
		if slot, ok := take(desc.Kind); ok {
			remap[id] = slot
			return slot
		}
		fresh := fn.Meta.NewTemp(desc.Kind)
		remap[id] = fresh
		return fresh
	}

	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		lastUse := map[il.VarID]int{}
		for idx, instr := range b.Instr {
			for _, op := range instr.Operands() {
				if v, ok := il.AsVariable(op); ok {
					lastUse[v.ID] = idx
				}
			}
		}
		for idx, instr := range b.Instr {
			ops := instr.Operands()
			changed := false
			newOps := make([]il.Operand, len(ops))
			for i, op := range ops {
				if v, ok := il.AsVariable(op); ok {
					newOps[i] = il.Variable{ID: resolve(v.ID)}
					changed = true
				} else {
					newOps[i] = op
				}
			}
			if changed {
				instr.SetOperands(newOps)
			}
			if ri, ok := instr.(il.ResultInstr); ok {
				if result, has := ri.Result(); has {
					ri.SetResult(resolve(result))
				}
			}
			for origID, last := range lastUse {
				if last != idx {
					continue
				}
				desc := fn.Meta.Descriptor(origID)
				if desc.Temp {
					if mapped, ok := remap[origID]; ok {
						release(desc.Kind, mapped)
					}
				}
			}
		}
	}
}
