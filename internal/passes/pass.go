// Package passes implements the per-function optimization suite: four
// classical passes run to a fixed point by Schedule, plus strength
// reduction, which the original driver runs once per iteration alongside
// them.
package passes

import (
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/cfg"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

// Result reports what a single pass invocation did.
type Result int

const (
	// None means the pass made no change; the fixed-point driver treats
	// an iteration where every pass returns None as converged.
	None Result = iota
	// Changed means the pass rewrote instructions but the CFG shape
	// (block count, edges) is unaffected; the driver keeps iterating but
	// does not need to rebuild dominance.
	Changed
	// Rerun means the pass altered CFG shape (branch folding, block
	// merging) and the driver must rebuild dominance and restart the
	// pass list from the beginning before trusting further results.
	Rerun
)

// Pass is one optimization over a single function's instructions.
type Pass interface {
	Name() string
	Run(g *cfg.Graph, fn *il.Function, logger diag.ILogger) Result
}

// MaxIterations bounds the fixed-point loop so a pathological input (or a
// latent bug introducing an oscillation) cannot hang the optimizer
// indefinitely.
const MaxIterations = 10

// DefaultSuite returns the four-pass fixed-point suite plus strength
// reduction, in the order the original optimizer runs them: folding
// first (to surface constants), then algebraic simplification (which can
// use folded constants to fold branches), then strength reduction, then
// CSE, then dead code elimination last (to clean up whatever the earlier
// passes orphaned).
func DefaultSuite() []Pass {
	return []Pass{
		&ConstantFolder{},
		&AlgebraicSimplifier{},
		&StrengthReducer{},
		&CommonSubexpressionEliminator{},
		&DeadCodeEliminator{},
	}
}

// ScheduleOptions carries Schedule's optional knobs. Omitting it (the
// zero-arg call form) reproduces the default bounded fixed point with no
// tracing, so existing callers don't need to change.
type ScheduleOptions struct {
	// MaxIterations overrides the package's MaxIterations bound; zero
	// means use it unmodified.
	MaxIterations int
	// Trace, if set, is called after every pass that reports Changed or
	// Rerun, labeled by pass name -- the driver's debug-trace hook.
	Trace func(passName string, fn *il.Function)
}

// Schedule runs passes to a fixed point over fn, per spec §4.4.1: a
// Changed result records progress and continues through the remaining
// passes in the current iteration; a Rerun result aborts the rest of the
// current iteration and restarts from the first pass, rebuilding
// dominance first. Progress (Changed or Rerun, in either order across the
// whole iteration) is what licenses another iteration; an iteration
// where every pass reports None means the suite has converged.
//
// This differs deliberately from the original optimizer's C++ driver,
// which only sets its `changed` flag on Changed and not on Rerun -- a
// Rerun there can cause the outer iteration bound to be consumed without
// being counted as progress, terminating the fixed point early even
// though the CFG just changed shape. The spec's prose licenses another
// iteration on either signal, which is what this implementation does.
func Schedule(passList []Pass, g *cfg.Graph, fn *il.Function, logger diag.ILogger, opts ...ScheduleOptions) int {
	max := MaxIterations
	var trace func(string, *il.Function)
	if len(opts) > 0 {
		if opts[0].MaxIterations > 0 {
			max = opts[0].MaxIterations
		}
		trace = opts[0].Trace
	}
	for iter := 0; iter < max; iter++ {
		progressed := false
	passLoop:
		for _, p := range passList {
			switch p.Run(g, fn, logger) {
			case Changed:
				progressed = true
				if trace != nil {
					trace(p.Name(), fn)
				}
			case Rerun:
				progressed = true
				g.RebuildDomTree()
				if trace != nil {
					trace(p.Name(), fn)
				}
				break passLoop
			case None:
			}
		}
		if !progressed {
			return iter + 1
		}
	}
	return max
}
