package deepdive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState() *State {
	return NewState("run-1", "why is peering flapping", DefaultConfig())
}

func TestTodoStatus_MonotonicTransitions(t *testing.T) {
	st := newTestState()
	todo := st.NewTodo("check bgp state", nil)

	require.NoError(t, todo.advance(StatusInProgress))
	require.NoError(t, todo.advance(StatusCompleted))

	// Terminal states never change again.
	assert.Error(t, todo.advance(StatusPending))
	assert.Error(t, todo.advance(StatusInProgress))
	assert.Error(t, todo.advance(StatusFailed))
	assert.Equal(t, StatusCompleted, todo.Status)
}

func TestTodoStatus_NoRegressionFromInProgress(t *testing.T) {
	st := newTestState()
	todo := st.NewTodo("check routes", nil)

	require.NoError(t, todo.advance(StatusInProgress))
	assert.Error(t, todo.advance(StatusPending))
	assert.Equal(t, StatusInProgress, todo.Status)
}

func TestTodoStatus_FailedIsTerminal(t *testing.T) {
	st := newTestState()
	todo := st.NewTodo("check vlan", nil)

	require.NoError(t, todo.advance(StatusFailed))
	assert.True(t, todo.Status.IsTerminal())
	assert.Error(t, todo.advance(StatusCompleted))
}

func TestState_NewTodo_SequentialIDs(t *testing.T) {
	st := newTestState()
	a := st.NewTodo("first", nil)
	b := st.NewTodo("second", []int{a.ID})

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)
	assert.Equal(t, []int{1}, b.Deps)
}

func TestState_NewTodo_ResumesAfterSnapshotRoundTrip(t *testing.T) {
	st := newTestState()
	st.NewTodo("first", nil)
	st.NewTodo("second", nil)

	// Simulate a checkpoint rehydration: unexported counters are lost.
	data, err := json.Marshal(st)
	require.NoError(t, err)
	var restored State
	require.NoError(t, json.Unmarshal(data, &restored))

	next := restored.NewTodo("third", nil)
	assert.Equal(t, 3, next.ID, "ids must never be reused after rehydration")
}

func TestState_ReadyFrontier_DepGating(t *testing.T) {
	st := newTestState()
	a := st.NewTodo("collect device facts", nil)
	b := st.NewTodo("correlate bgp flaps", []int{a.ID})

	ready := st.ReadyFrontier()
	require.Len(t, ready, 1)
	assert.Equal(t, a.ID, ready[0].ID)

	require.NoError(t, a.advance(StatusInProgress))
	require.NoError(t, a.advance(StatusCompleted))

	ready = st.ReadyFrontier()
	require.Len(t, ready, 1)
	assert.Equal(t, b.ID, ready[0].ID)
}

func TestState_ReadyFrontier_FailedDepNeverUnblocks(t *testing.T) {
	st := newTestState()
	a := st.NewTodo("collect device facts", nil)
	st.NewTodo("correlate bgp flaps", []int{a.ID})

	require.NoError(t, a.advance(StatusFailed))

	assert.Empty(t, st.ReadyFrontier(), "a failed dependency must keep dependents blocked")
}

func TestState_Clone_Independence(t *testing.T) {
	st := newTestState()
	todo := st.NewTodo("check interfaces", nil)
	st.Append("planner", "planned 1 task(s)")
	st.CompletedResults[99] = "stale"

	clone := st.Clone()
	clone.Todos[0].Task = "mutated"
	clone.Todos[0].Deps = append(clone.Todos[0].Deps, 7)
	clone.Transcript[0].Content = "mutated"
	clone.CompletedResults[99] = "mutated"

	assert.Equal(t, "check interfaces", todo.Task)
	assert.Empty(t, todo.Deps)
	assert.Equal(t, "planned 1 task(s)", st.Transcript[0].Content)
	assert.Equal(t, "stale", st.CompletedResults[99])
}

func TestState_CountByStatus(t *testing.T) {
	st := newTestState()
	a := st.NewTodo("a", nil)
	b := st.NewTodo("b", nil)
	st.NewTodo("c", nil)

	require.NoError(t, a.advance(StatusCompleted))
	require.NoError(t, b.advance(StatusFailed))

	counts := st.CountByStatus()
	assert.Equal(t, 1, counts[StatusCompleted])
	assert.Equal(t, 1, counts[StatusFailed])
	assert.Equal(t, 1, counts[StatusPending])
}
