package diag

import "fmt"

// Code identifies an InternalInvariant by a stable E1xxx number, parallel
// to the teacher's own E0xxx error-code range but reserved for this
// optimizer core so the two never collide if ever embedded together.
type Code string

const (
	// CodeMalformedCFG: a block's terminator doesn't match its Succs, or
	// a jump target doesn't exist.
	CodeMalformedCFG Code = "E1001"
	// CodeSSAInvariant: a dominance or phi-arity invariant was violated
	// (e.g. a definition doesn't dominate one of its uses).
	CodeSSAInvariant Code = "E1002"
	// CodeCallGraphCycle: the SCC condensation produced a cycle in what
	// should be a DAG, meaning the SCC computation itself is broken.
	CodeCallGraphCycle Code = "E1003"
	// CodeInlinePrecondition: InlineAt was asked to inline a call whose
	// callee does not meet the single-block/single-return precondition.
	CodeInlinePrecondition Code = "E1004"
	// CodeUnknownOpcode: a pass encountered an Opcode it doesn't handle.
	CodeUnknownOpcode Code = "E1005"
)

// InternalInvariant reports a broken compiler invariant: a bug, not a
// user-facing condition. Callers that see one should abort processing
// the current function only, per spec §7, and continue with the rest of
// the module.
type InternalInvariant struct {
	Code Code
	Func string
	Msg  string
}

func (e *InternalInvariant) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("%s: internal invariant violated in %s: %s", e.Code, e.Func, e.Msg)
	}
	return fmt.Sprintf("%s: internal invariant violated: %s", e.Code, e.Msg)
}

// NewInvariant builds an InternalInvariant with a formatted message.
func NewInvariant(code Code, fn string, format string, args ...any) *InternalInvariant {
	return &InternalInvariant{Code: code, Func: fn, Msg: fmt.Sprintf(format, args...)}
}
