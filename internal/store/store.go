package store

import (
	"context"
	"io"

	"github.com/dusk-indust/netdive/internal/deepdive"
)

// Store is the run archive backend.
// Implementations: KuzuStore (production), MemStore (testing).
type Store interface {
	io.Closer

	// Schema setup. Called once before any run is saved.
	InitSchema(ctx context.Context) error

	// SaveRun upserts the full run state, replacing any previous save
	// for the same run ID. Called at checkpoints and after completion.
	SaveRun(ctx context.Context, state *deepdive.State) error

	// LoadRun returns the last saved state for a run, or nil when the
	// run is unknown.
	LoadRun(ctx context.Context, runID string) (*deepdive.State, error)

	// ListRuns returns a summary per archived run.
	ListRuns(ctx context.Context) ([]RunSummary, error)

	// Stats summarizes the archive.
	Stats(ctx context.Context) (*ArchiveStats, error)
}

// RunSummary is a one-row view of an archived run.
type RunSummary struct {
	RunID     string `json:"runId"`
	Objective string `json:"objective"`
	Phase     string `json:"phase"`
	Rounds    int    `json:"rounds"`
	TodoCount int    `json:"todoCount"`
	Aborted   bool   `json:"aborted"`
}

// ArchiveStats summarizes the archive contents.
type ArchiveStats struct {
	RunCount       int `json:"runCount"`
	TodoCount      int `json:"todoCount"`
	CompletedTodos int `json:"completedTodos"`
	FailedTodos    int `json:"failedTodos"`
	DepCount       int `json:"depCount"`
}

// Compile-time check.
var _ deepdive.Checkpointer = Checkpoint{}

// Checkpoint adapts a Store to the engine's checkpoint port.
type Checkpoint struct {
	S Store
}

// Checkpoint persists the snapshot the engine hands over.
func (c Checkpoint) Checkpoint(ctx context.Context, state *deepdive.State) error {
	return c.S.SaveRun(ctx, state)
}
