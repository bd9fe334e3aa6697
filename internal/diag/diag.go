// Package diag carries the optimizer's two distinct error channels: user
// diagnostics (recoverable conditions like integer division by zero,
// logged and then worked around so optimization can continue) and
// InternalInvariant errors (compiler bugs / broken contracts, which abort
// only the function currently being processed).
package diag

import (
	"fmt"

	"github.com/tliron/commonlog"
)

// Severity classifies a diagnostic for rendering and filtering.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Diagnostic is one user-facing message emitted during optimization:
// e.g. "division by constant zero detected during folding; rewritten
// to a safe form".
type Diagnostic struct {
	Severity Severity
	Func     string
	Message  string
}

func (d Diagnostic) String() string {
	if d.Func != "" {
		return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Func, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Severity, d.Message)
}

// ILogger is the sink every pass, analysis, and driver component takes
// for diagnostics. CommonLogLogger backs it with commonlog in
// production; CollectingLogger backs it in tests.
type ILogger interface {
	Log(d Diagnostic)
}

// CommonLogLogger adapts commonlog.Logger, the teacher's logging
// collaborator, to ILogger.
type CommonLogLogger struct {
	Backend commonlog.Logger
}

// NewCommonLogLogger wraps a named commonlog sub-logger the way
// cmd/kanso-lsp's main.go does at the process boundary: constructed
// once, passed down explicitly, never reached for as a global.
func NewCommonLogLogger(name string) *CommonLogLogger {
	return &CommonLogLogger{Backend: commonlog.GetLogger(name)}
}

func (l *CommonLogLogger) Log(d Diagnostic) {
	switch d.Severity {
	case SeverityError:
		l.Backend.Error(d.String())
	case SeverityWarn:
		l.Backend.Warning(d.String())
	default:
		l.Backend.Info(d.String())
	}
}

// CollectingLogger accumulates diagnostics in memory; used by tests that
// want to assert on what a pass logged instead of parsing stdout.
type CollectingLogger struct {
	Entries []Diagnostic
}

func (l *CollectingLogger) Log(d Diagnostic) {
	l.Entries = append(l.Entries, d)
}

// NopLogger discards everything; used where a caller needs an ILogger
// but doesn't care about output (e.g. benchmark harnesses).
type NopLogger struct{}

func (NopLogger) Log(Diagnostic) {}
