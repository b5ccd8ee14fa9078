package deepdive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressReporter_EmitAndSubscribe(t *testing.T) {
	pr := NewProgressReporter()
	pr.Emit(ProgressEvent{Round: 0, Phase: PhaseExecuting, TodoID: 1, Status: ProgressWorking})
	pr.Close()

	var events []ProgressEvent
	for ev := range pr.Subscribe() {
		events = append(events, ev)
	}
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].TodoID)
}

func TestProgressReporter_DropsWhenFull(t *testing.T) {
	pr := NewProgressReporter()
	// Overfill the 64-slot buffer without a consumer; Emit must not block.
	for i := 0; i < 200; i++ {
		pr.Emit(ProgressEvent{TodoID: i})
	}
	pr.Close()

	count := 0
	for range pr.Subscribe() {
		count++
	}
	assert.Equal(t, 64, count)
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "  ● [round 0] planning...",
		FormatProgress(ProgressEvent{Phase: PhasePlanning, Status: ProgressWorking}))
	assert.Equal(t, "  ✓ [round 1] todo 3 complete",
		FormatProgress(ProgressEvent{Round: 1, TodoID: 3, Status: ProgressComplete}))
	assert.Equal(t, "  ✗ [round 2] todo 4 failed: NO_DATA_FOUND",
		FormatProgress(ProgressEvent{Round: 2, TodoID: 4, Status: ProgressFailed, Message: "NO_DATA_FOUND"}))
}

func TestConfig_NormalizedDefaults(t *testing.T) {
	cfg := Config{MaxDepth: -1, ParallelBatchSize: 0, FailureCap: 0}.normalized()
	def := DefaultConfig()
	assert.Equal(t, def.MaxDepth, cfg.MaxDepth)
	assert.Equal(t, def.ParallelBatchSize, cfg.ParallelBatchSize)
	assert.Equal(t, def.FailureCap, cfg.FailureCap)
	assert.Equal(t, EvalAutoPass, cfg.EvalPolicy)
}

func TestConfig_NormalizedKeepsZeroMaxDepth(t *testing.T) {
	// Depth 0 is a valid "no recursion" setting, not a missing value.
	cfg := Config{MaxDepth: 0, ParallelBatchSize: 4, FailureCap: 3}.normalized()
	assert.Zero(t, cfg.MaxDepth)
}
