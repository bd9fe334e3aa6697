// Package config holds the small set of explicit knobs the optimizer
// driver needs, in place of a generic settings bag.
package config

// OptimizerConfig controls the fixed-point driver's behavior. There is
// no file or environment loader: callers (the CLI, tests) construct one
// directly.
type OptimizerConfig struct {
	// MaxIterations bounds the per-function pass fixed point. Zero means
	// use passes.MaxIterations.
	MaxIterations int

	// InlineCostThreshold gates whether a callee is inlined at a given
	// call site; a callee whose precomputed InlineCost exceeds this is
	// skipped. Zero means unlimited.
	InlineCostThreshold int

	// DebugTrace, when set, makes the driver print the CFG after every
	// successful pass, labeled by pass name. Advisory only.
	DebugTrace bool

	// Parallel toggles the driver's per-function worker pool for the
	// SSA-build/pass-fixed-point phase. False runs every function on the
	// calling goroutine, useful for deterministic tests.
	Parallel bool
}

// Default returns the configuration the CLI uses absent any flags.
func Default() OptimizerConfig {
	return OptimizerConfig{
		MaxIterations:       0,
		InlineCostThreshold: 0,
		DebugTrace:          false,
		Parallel:            true,
	}
}
