package il

// VarDescriptor records the static facts about a base variable id: its
// declared numeric kind and whether it originated as a compiler temp.
type VarDescriptor struct {
	Kind NumberKind
	Temp bool
	Name string // optional, for textual round-tripping
}

// OutgoingCall records one call site discovered while scanning a
// function's instructions, consumed by callgraph.Build.
type OutgoingCall struct {
	Block     int
	InstrIdx  int
	Callee    uint32
	CalleeName string
}

// ILMetadata accumulates side-tables for a Function: the variable
// descriptor arena (indexed by VarID.BaseIndex()), and the outgoing call
// list rebuilt each time the function's instructions change shape enough
// to matter (kept explicit rather than recomputed ad hoc, since both the
// call graph builder and the inliner need it).
type ILMetadata struct {
	Vars          []VarDescriptor
	OutgoingCalls []OutgoingCall
	nextTemp      uint32
}

// DeclareVar registers a new base variable and returns its base id.
func (m *ILMetadata) DeclareVar(kind NumberKind, temp bool, name string) VarID {
	idx := uint32(len(m.Vars))
	m.Vars = append(m.Vars, VarDescriptor{Kind: kind, Temp: temp, Name: name})
	return NewVarID(idx, 0, temp)
}

// NewTemp allocates a fresh compiler temp of the given kind, used by SSA
// reduction's coalescing pool.
func (m *ILMetadata) NewTemp(kind NumberKind) VarID {
	id := m.DeclareVar(kind, true, "")
	m.nextTemp++
	return id
}

// Descriptor looks up the static descriptor for a variable id.
func (m *ILMetadata) Descriptor(id VarID) VarDescriptor {
	return m.Vars[id.BaseIndex()]
}

// RescanCalls rebuilds OutgoingCalls by walking every live block's
// instructions. Cheap relative to function size; called after any pass
// that may add, remove, or move Call instructions.
func (m *ILMetadata) RescanCalls(fn *Function) {
	m.OutgoingCalls = m.OutgoingCalls[:0]
	for _, b := range fn.Blocks {
		if b.Dead {
			continue
		}
		for idx, instr := range b.Instr {
			call, ok := instr.(*CallInstr)
			if !ok {
				continue
			}
			m.OutgoingCalls = append(m.OutgoingCalls, OutgoingCall{
				Block:      b.ID,
				InstrIdx:   idx,
				Callee:     call.Callee.FuncID,
				CalleeName: call.Callee.Name,
			})
		}
	}
}
