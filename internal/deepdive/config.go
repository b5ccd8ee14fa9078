package deepdive

// EvalPolicy fixes how the executor treats an unavailable or failing
// evaluator collaborator. The policy is set once per run and never varies
// mid-run.
type EvalPolicy string

const (
	// EvalAutoPass completes a todo on tool success when no evaluation
	// could be obtained. This is the default.
	EvalAutoPass EvalPolicy = "auto-pass"

	// EvalStrict fails a todo with reason "evaluator error" when the
	// evaluator is configured but errors out.
	EvalStrict EvalPolicy = "strict"
)

// Config holds the engine tunables for a deep-dive run.
type Config struct {
	// MaxDepth bounds recursive re-planning rounds. Depth 0 is the initial
	// round; once RecursionDepth reaches MaxDepth no further recursion is
	// triggered regardless of outstanding failures.
	MaxDepth int

	// ParallelBatchSize caps how many ready todos execute concurrently in
	// one batch. A value of 1 forces serial execution.
	ParallelBatchSize int

	// FailureCap limits how many failed todos feed one recursion round's
	// refinement. Excess failures in the same round are silently capped.
	FailureCap int

	// EvalPolicy governs todo completion when the evaluator is absent or
	// erroring. See EvalAutoPass and EvalStrict.
	EvalPolicy EvalPolicy

	// Verbose enables per-todo progress logging.
	Verbose bool
}

// DefaultConfig returns the engine defaults: depth 2, batches of 4, three
// failures per refinement, auto-pass evaluation.
func DefaultConfig() Config {
	return Config{
		MaxDepth:          2,
		ParallelBatchSize: 4,
		FailureCap:        3,
		EvalPolicy:        EvalAutoPass,
	}
}

// normalized returns cfg with zero or negative fields replaced by defaults.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxDepth < 0 {
		c.MaxDepth = def.MaxDepth
	}
	if c.ParallelBatchSize <= 0 {
		c.ParallelBatchSize = def.ParallelBatchSize
	}
	if c.FailureCap <= 0 {
		c.FailureCap = def.FailureCap
	}
	if c.EvalPolicy == "" {
		c.EvalPolicy = def.EvalPolicy
	}
	return c
}
