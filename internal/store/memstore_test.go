package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/netdive/internal/deepdive"
)

// archivedRun builds a finished two-todo run for store tests.
func archivedRun(runID string) *deepdive.State {
	st := deepdive.NewState(runID, "why is peering flapping", deepdive.DefaultConfig())
	a := st.NewTodo("check bgp sessions", nil)
	b := st.NewTodo("check interface errors", []int{a.ID})

	a.Status = deepdive.StatusCompleted
	a.Feasibility = deepdive.Feasible
	a.RecommendedTable = "bgp"
	a.Result = "3 rows from bgp"
	st.CompletedResults[a.ID] = a.Result
	b.Status = deepdive.StatusFailed
	b.FailureReason = "NO_DATA_FOUND"

	st.Phase = deepdive.PhaseComplete
	return st
}

func TestMemStore_SaveAndLoadRun(t *testing.T) {
	m := NewMemStore()
	defer m.Close()
	ctx := context.Background()
	require.NoError(t, m.InitSchema(ctx))

	st := archivedRun("run-1")
	require.NoError(t, m.SaveRun(ctx, st))

	loaded, err := m.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "why is peering flapping", loaded.Objective)
	require.Len(t, loaded.Todos, 2)
	assert.Equal(t, deepdive.StatusCompleted, loaded.Todos[0].Status)
	assert.Equal(t, "3 rows from bgp", loaded.CompletedResults[1])
}

func TestMemStore_LoadUnknownRunIsNil(t *testing.T) {
	m := NewMemStore()

	loaded, err := m.LoadRun(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemStore_SaveIsolatesCaller(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	st := archivedRun("run-1")
	require.NoError(t, m.SaveRun(ctx, st))

	// Mutations after save must not leak into the archive.
	st.Todos[0].Result = "mutated"
	st.Objective = "mutated"

	loaded, err := m.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "3 rows from bgp", loaded.Todos[0].Result)
	assert.Equal(t, "why is peering flapping", loaded.Objective)
}

func TestMemStore_SaveOverwritesSameRun(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	st := archivedRun("run-1")
	require.NoError(t, m.SaveRun(ctx, st))

	st.Todos[1].Status = deepdive.StatusCompleted
	st.Todos[1].FailureReason = ""
	require.NoError(t, m.SaveRun(ctx, st))

	loaded, err := m.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, deepdive.StatusCompleted, loaded.Todos[1].Status)

	runs, err := m.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestMemStore_ListRunsSortedByID(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	for _, id := range []string{"run-c", "run-a", "run-b"} {
		require.NoError(t, m.SaveRun(ctx, archivedRun(id)))
	}

	runs, err := m.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-a", runs[0].RunID)
	assert.Equal(t, "run-b", runs[1].RunID)
	assert.Equal(t, "run-c", runs[2].RunID)

	assert.Equal(t, string(deepdive.PhaseComplete), runs[0].Phase)
	assert.Equal(t, 1, runs[0].Rounds)
	assert.Equal(t, 2, runs[0].TodoCount)
	assert.False(t, runs[0].Aborted)
}

func TestMemStore_Stats(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	require.NoError(t, m.SaveRun(ctx, archivedRun("run-1")))
	require.NoError(t, m.SaveRun(ctx, archivedRun("run-2")))

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RunCount)
	assert.Equal(t, 4, stats.TodoCount)
	assert.Equal(t, 2, stats.CompletedTodos)
	assert.Equal(t, 2, stats.FailedTodos)
	assert.Equal(t, 2, stats.DepCount)
}

func TestCheckpoint_AdaptsStore(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	var cp deepdive.Checkpointer = Checkpoint{S: m}
	require.NoError(t, cp.Checkpoint(ctx, archivedRun("run-cp")))

	loaded, err := m.LoadRun(ctx, "run-cp")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, deepdive.PhaseComplete, loaded.Phase)
}
