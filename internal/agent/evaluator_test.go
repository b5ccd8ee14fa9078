package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicEvaluator_EmptyRowsFail(t *testing.T) {
	e := NewHeuristicEvaluator()

	ev, err := e.Evaluate(context.Background(), "any objective", nil)
	require.NoError(t, err)
	assert.False(t, ev.Passed)
	assert.Zero(t, ev.Score)
	assert.Equal(t, "no rows to evaluate", ev.Feedback)
}

func TestHeuristicEvaluator_NonEmptyRowsPassDefaultThreshold(t *testing.T) {
	e := NewHeuristicEvaluator()

	// Data with zero vocabulary overlap still earns the base score, which
	// meets the default threshold.
	ev, err := e.Evaluate(context.Background(), "why is ospf broken",
		[]map[string]any{{"vlan": 100}})
	require.NoError(t, err)
	assert.True(t, ev.Passed)
	assert.InDelta(t, 0.5, ev.Score, 1e-9)
	assert.Empty(t, ev.Feedback)
}

func TestHeuristicEvaluator_FullOverlapScoresOne(t *testing.T) {
	e := NewHeuristicEvaluator()

	ev, err := e.Evaluate(context.Background(), "leaf1 established",
		[]map[string]any{{"hostname": "leaf1", "state": "Established"}})
	require.NoError(t, err)
	assert.True(t, ev.Passed)
	assert.InDelta(t, 1.0, ev.Score, 1e-9)
}

func TestHeuristicEvaluator_StrictThresholdRejectsLowOverlap(t *testing.T) {
	e := NewHeuristicEvaluator(WithPassThreshold(0.8))

	ev, err := e.Evaluate(context.Background(), "why is ospf broken",
		[]map[string]any{{"vlan": 100}})
	require.NoError(t, err)
	assert.False(t, ev.Passed)
	assert.Contains(t, ev.Feedback, "little overlap")
}

func TestHeuristicEvaluator_KeysCountTowardOverlap(t *testing.T) {
	e := NewHeuristicEvaluator(WithPassThreshold(0.7))

	// "hostname" appears only as a row key, not a value.
	ev, err := e.Evaluate(context.Background(), "hostname leaf3",
		[]map[string]any{{"hostname": "leaf3"}})
	require.NoError(t, err)
	assert.True(t, ev.Passed)
	assert.InDelta(t, 1.0, ev.Score, 1e-9)
}
