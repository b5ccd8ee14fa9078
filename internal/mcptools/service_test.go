package mcptools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/netdive/internal/deepdive"
)

// Function-typed port mocks, matching the engine's collaborator interfaces.
type (
	plannerFn func(ctx context.Context, prompt string) (string, error)
	finderFn  func(ctx context.Context, query string) (map[string]deepdive.TableSchema, error)
	toolFn    func(ctx context.Context, req deepdive.ToolRequest) (deepdive.ToolResult, error)
)

func (f plannerFn) Plan(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }
func (f finderFn) Discover(ctx context.Context, query string) (map[string]deepdive.TableSchema, error) {
	return f(ctx, query)
}
func (f toolFn) Execute(ctx context.Context, req deepdive.ToolRequest) (deepdive.ToolResult, error) {
	return f(ctx, req)
}

func singlePlan(task string) plannerFn {
	return func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "## Refinement") {
			return `{"todos":[]}`, nil
		}
		return `{"todos":[{"id":1,"task":"` + task + `","deps":[]}]}`, nil
	}
}

func confirming(tables ...string) finderFn {
	return func(_ context.Context, _ string) (map[string]deepdive.TableSchema, error) {
		out := make(map[string]deepdive.TableSchema, len(tables))
		for _, name := range tables {
			out[name] = deepdive.TableSchema{Fields: []string{"hostname", "state"}}
		}
		return out, nil
	}
}

func okRows() toolFn {
	return func(_ context.Context, _ deepdive.ToolRequest) (deepdive.ToolResult, error) {
		return deepdive.ToolResult{
			Status: deepdive.ToolStatusOK,
			Data:   []map[string]any{{"hostname": "leaf1", "state": "Established"}},
		}, nil
	}
}

// newService wires a DiveService whose engine parks at the given gate.
func newService(gate *deepdive.PendingGate, ports deepdive.Ports) *DiveService {
	ports.Approver = gate
	engine := deepdive.NewEngine(deepdive.DefaultConfig(), ports)
	return NewDiveService(engine, gate)
}

func TestDiveService_StartRequiresObjective(t *testing.T) {
	s := newService(deepdive.NewPendingGate(), deepdive.Ports{
		Planner:      singlePlan("x"),
		SchemaFinder: confirming("bgp"),
		ToolRunner:   okRows(),
	})

	_, _, err := s.StartInvestigation(context.Background(), nil, StartInvestigationInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "objective is required")
}

func TestDiveService_FeasibleRunCompletesWithoutGate(t *testing.T) {
	s := newService(deepdive.NewPendingGate(), deepdive.Ports{
		Planner:      singlePlan("check bgp session state"),
		SchemaFinder: confirming("bgp"),
		ToolRunner:   okRows(),
	})
	ctx := context.Background()

	_, started, err := s.StartInvestigation(ctx, nil, StartInvestigationInput{
		Objective: "why is peering flapping",
	})
	require.NoError(t, err)
	assert.Equal(t, "started", started.Status)
	require.NotEmpty(t, started.RunID)

	require.Eventually(t, func() bool {
		_, status, err := s.GetRunStatus(ctx, nil, GetRunStatusInput{RunID: started.RunID})
		return err == nil && status.Phase == string(deepdive.PhaseComplete)
	}, 5*time.Second, 20*time.Millisecond)

	_, status, err := s.GetRunStatus(ctx, nil, GetRunStatusInput{RunID: started.RunID})
	require.NoError(t, err)
	assert.False(t, status.Aborted)
	assert.Equal(t, 1, status.TodoCounts[string(deepdive.StatusCompleted)])
	assert.Contains(t, status.Report, "why is peering flapping")
}

func TestDiveService_PendingPlanAndApprove(t *testing.T) {
	gate := deepdive.NewPendingGate()
	// No table hint in the task, so classification lands on uncertain and
	// the run parks at the gate.
	s := newService(gate, deepdive.Ports{
		Planner:      singlePlan("check peering health"),
		SchemaFinder: confirming("bgp"),
		ToolRunner:   okRows(),
	})
	ctx := context.Background()

	_, started, err := s.StartInvestigation(ctx, nil, StartInvestigationInput{
		Objective: "why is peering flapping",
	})
	require.NoError(t, err)

	var pending GetPendingPlanOutput
	require.Eventually(t, func() bool {
		_, pending, err = s.GetPendingPlan(ctx, nil, GetPendingPlanInput{RunID: started.RunID})
		return err == nil && pending.Found
	}, 5*time.Second, 20*time.Millisecond)

	require.NotEmpty(t, pending.Token)
	assert.Equal(t, []int{1}, pending.UncertainTasks)
	require.Len(t, pending.Todos, 1)
	assert.Equal(t, "check peering health", pending.Todos[0].Task)
	assert.Equal(t, string(deepdive.Uncertain), pending.Todos[0].Feasibility)

	_, resolved, err := s.ResolveApproval(ctx, nil, ResolveApprovalInput{
		Token:    pending.Token,
		Decision: "approve",
	})
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Contains(t, resolved.Message, "approve")

	require.Eventually(t, func() bool {
		_, status, err := s.GetRunStatus(ctx, nil, GetRunStatusInput{RunID: started.RunID})
		return err == nil && status.Phase == string(deepdive.PhaseComplete)
	}, 5*time.Second, 20*time.Millisecond)
}

func TestDiveService_GetPendingPlanUnknownRun(t *testing.T) {
	s := newService(deepdive.NewPendingGate(), deepdive.Ports{
		Planner:      singlePlan("x"),
		SchemaFinder: confirming("bgp"),
		ToolRunner:   okRows(),
	})

	_, out, err := s.GetPendingPlan(context.Background(), nil, GetPendingPlanInput{RunID: "nope"})
	require.NoError(t, err)
	assert.False(t, out.Found)
}

func TestDiveService_ResolveUnknownToken(t *testing.T) {
	s := newService(deepdive.NewPendingGate(), deepdive.Ports{
		Planner:      singlePlan("x"),
		SchemaFinder: confirming("bgp"),
		ToolRunner:   okRows(),
	})

	_, _, err := s.ResolveApproval(context.Background(), nil, ResolveApprovalInput{
		Token:    "bogus",
		Decision: "approve",
	})
	require.Error(t, err)
}

func TestDiveService_ResolveUnknownDecisionKind(t *testing.T) {
	s := newService(deepdive.NewPendingGate(), deepdive.Ports{
		Planner:      singlePlan("x"),
		SchemaFinder: confirming("bgp"),
		ToolRunner:   okRows(),
	})

	_, _, err := s.ResolveApproval(context.Background(), nil, ResolveApprovalInput{
		Token:    "any",
		Decision: "escalate",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown decision")
}

func TestDiveService_GetRunStatusUnknownRun(t *testing.T) {
	s := newService(deepdive.NewPendingGate(), deepdive.Ports{
		Planner:      singlePlan("x"),
		SchemaFinder: confirming("bgp"),
		ToolRunner:   okRows(),
	})

	_, _, err := s.GetRunStatus(context.Background(), nil, GetRunStatusInput{RunID: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown run")
}

func TestDiveService_ExportFormats(t *testing.T) {
	s := newService(deepdive.NewPendingGate(), deepdive.Ports{
		Planner:      singlePlan("check bgp session state"),
		SchemaFinder: confirming("bgp"),
		ToolRunner:   okRows(),
	})
	ctx := context.Background()

	_, started, err := s.StartInvestigation(ctx, nil, StartInvestigationInput{
		Objective: "why is peering flapping",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, status, err := s.GetRunStatus(ctx, nil, GetRunStatusInput{RunID: started.RunID})
		return err == nil && status.Phase == string(deepdive.PhaseComplete)
	}, 5*time.Second, 20*time.Millisecond)

	// Default format is JSON.
	_, jsonOut, err := s.ExportRun(ctx, nil, ExportRunInput{RunID: started.RunID})
	require.NoError(t, err)
	assert.Equal(t, "json", jsonOut.Format)
	assert.Contains(t, jsonOut.Content, `"runId"`)
	assert.Contains(t, jsonOut.Content, `"completed"`)

	_, mm, err := s.ExportRun(ctx, nil, ExportRunInput{RunID: started.RunID, Format: "mermaid"})
	require.NoError(t, err)
	assert.Contains(t, mm.Content, "graph TD")

	_, _, err = s.ExportRun(ctx, nil, ExportRunInput{RunID: started.RunID, Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export format")
}
