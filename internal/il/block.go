package il

// BasicBlock is a maximal straight-line run of instructions ending in a
// terminator (Jump/CondJump/Return). Blocks are stored in a Function's
// block arena and referenced by index everywhere else (phi args, jump
// targets, dominance structures) rather than by pointer; removed blocks
// stay in the arena marked Dead, so block ids never shift.
type BasicBlock struct {
	ID    int
	Instr []Instruction

	Preds []int
	Succs []int

	// Sealed marks that all predecessors of this block are known. No code
	// in this module sets or reads it; SSA construction places phis from
	// dominance frontiers instead.
	Sealed bool
	// Dead marks a block removed by CFG surgery (branch folding, unlinked
	// unreachable code); dead blocks stay in the arena and are skipped by
	// every later pass.
	Dead bool
}

// Terminator returns the block's last instruction, which must be a
// control-flow instruction in any well-formed, non-dead block.
func (b *BasicBlock) Terminator() Instruction {
	if len(b.Instr) == 0 {
		return nil
	}
	return b.Instr[len(b.Instr)-1]
}

// Append adds instr to the end of the block.
func (b *BasicBlock) Append(instr Instruction) {
	b.Instr = append(b.Instr, instr)
}

// RemoveInstrAt deletes the instruction at position idx.
func (b *BasicBlock) RemoveInstrAt(idx int) {
	b.Instr = append(b.Instr[:idx], b.Instr[idx+1:]...)
}

// InsertInstrAt splices instr into the block immediately before position
// idx, used by the inliner to place cloned callee instructions ahead of
// the call site they're replacing.
func (b *BasicBlock) InsertInstrAt(idx int, instr Instruction) {
	b.Instr = append(b.Instr, nil)
	copy(b.Instr[idx+1:], b.Instr[idx:])
	b.Instr[idx] = instr
}

// Phis returns the leading run of Phi instructions in the block. SSA form
// requires every Phi to precede every non-Phi instruction.
func (b *BasicBlock) Phis() []*PhiInstr {
	var phis []*PhiInstr
	for _, instr := range b.Instr {
		p, ok := instr.(*PhiInstr)
		if !ok {
			break
		}
		phis = append(phis, p)
	}
	return phis
}

// HasSucc reports whether target appears in Succs.
func (b *BasicBlock) HasSucc(target int) bool {
	for _, s := range b.Succs {
		if s == target {
			return true
		}
	}
	return false
}

// AddSucc/AddPred/RemoveSucc/RemovePred maintain the block's edge lists,
// used by internal/cfg's graph surgery (Unlink, MergeNodes) to keep both
// ends of an edge consistent without duplicating the dedup logic at every
// call site.

func (b *BasicBlock) AddSucc(target int) { b.Succs = addIntTo(b.Succs, target) }
func (b *BasicBlock) AddPred(src int)    { b.Preds = addIntTo(b.Preds, src) }
func (b *BasicBlock) RemoveSucc(target int) { b.Succs = removeIntFrom(b.Succs, target) }
func (b *BasicBlock) RemovePred(src int)    { b.Preds = removeIntFrom(b.Preds, src) }

func removeIntFrom(xs []int, v int) []int {
	out := xs[:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func addIntTo(xs []int, v int) []int {
	for _, x := range xs {
		if x == v {
			return xs
		}
	}
	return append(xs, v)
}
