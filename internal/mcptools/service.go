package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/netdive/internal/deepdive"
	"github.com/dusk-indust/netdive/internal/export"
)

// DiveService handles MCP tool calls for the deep-dive server mode. It
// launches runs in the background, surfaces plans parked at the approval
// gate, and delivers resume decisions.
type DiveService struct {
	engine *deepdive.Engine
	gate   *deepdive.PendingGate

	mu      sync.Mutex
	results map[string]*deepdive.RunResult
}

// NewDiveService creates a DiveService around an engine and its gate. The
// gate must be the engine's Approver or resolve_approval will never find
// parked runs.
func NewDiveService(engine *deepdive.Engine, gate *deepdive.PendingGate) *DiveService {
	return &DiveService{
		engine:  engine,
		gate:    gate,
		results: make(map[string]*deepdive.RunResult),
	}
}

// StartInvestigation launches a deep dive in the background and returns its
// run ID immediately. The run may later park at the approval gate; poll
// get_pending_plan to find out.
func (s *DiveService) StartInvestigation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StartInvestigationInput,
) (*mcp.CallToolResult, StartInvestigationOutput, error) {
	if input.Objective == "" {
		return nil, StartInvestigationOutput{}, fmt.Errorf("objective is required")
	}

	runID := uuid.NewString()

	// The run outlives this tool call. Detach from the request context so
	// closing the MCP exchange does not cancel an in-flight dive.
	go func() {
		result, err := s.engine.RunWithID(context.Background(), runID, input.Objective)
		if err != nil {
			log.Printf("mcptools: run %s: %v", runID, err)
			return
		}
		s.mu.Lock()
		s.results[runID] = result
		s.mu.Unlock()
	}()

	return nil, StartInvestigationOutput{
		RunID:  runID,
		Status: "started",
	}, nil
}

// GetPendingPlan reports the plan parked at the approval gate for a run.
func (s *DiveService) GetPendingPlan(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetPendingPlanInput,
) (*mcp.CallToolResult, GetPendingPlanOutput, error) {
	pa, ok := s.gate.PendingForRun(input.RunID)
	if !ok {
		return nil, GetPendingPlanOutput{Found: false}, nil
	}

	out := GetPendingPlanOutput{
		Found:           true,
		Token:           pa.Token,
		FeasibleTasks:   pa.Plan.FeasibleTasks,
		UncertainTasks:  pa.Plan.UncertainTasks,
		InfeasibleTasks: pa.Plan.InfeasibleTasks,
		Recommendations: pa.Plan.Recommendations,
	}
	for _, t := range pa.Todos {
		out.Todos = append(out.Todos, PlanTodo{
			ID:               t.ID,
			Task:             t.Task,
			Feasibility:      string(t.Feasibility),
			RecommendedTable: t.RecommendedTable,
		})
	}
	return nil, out, nil
}

// ResolveApproval delivers an operator decision to a parked run.
func (s *DiveService) ResolveApproval(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ResolveApprovalInput,
) (*mcp.CallToolResult, ResolveApprovalOutput, error) {
	decision, err := buildDecision(input)
	if err != nil {
		return nil, ResolveApprovalOutput{Message: err.Error()}, err
	}

	if err := s.gate.Resolve(input.Token, decision); err != nil {
		return nil, ResolveApprovalOutput{Message: err.Error()}, err
	}

	return nil, ResolveApprovalOutput{
		Resolved: true,
		Message:  fmt.Sprintf("decision %q delivered", decision.Kind),
	}, nil
}

// GetRunStatus reports the latest phase-boundary snapshot for a run, plus
// the final report once the run is complete.
func (s *DiveService) GetRunStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetRunStatusInput,
) (*mcp.CallToolResult, GetRunStatusOutput, error) {
	state, report, err := s.lookup(input.RunID)
	if err != nil {
		return nil, GetRunStatusOutput{}, err
	}

	counts := make(map[string]int)
	for status, n := range state.CountByStatus() {
		counts[string(status)] = n
	}

	return nil, GetRunStatusOutput{
		RunID:          state.RunID,
		Phase:          string(state.Phase),
		Round:          state.Round,
		RecursionDepth: state.RecursionDepth,
		TodoCounts:     counts,
		Aborted:        state.Aborted,
		AbortReason:    state.AbortReason,
		Report:         report,
	}, nil
}

// ExportRun renders a run as JSON or a Mermaid dependency diagram.
func (s *DiveService) ExportRun(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ExportRunInput,
) (*mcp.CallToolResult, ExportRunOutput, error) {
	state, report, err := s.lookup(input.RunID)
	if err != nil {
		return nil, ExportRunOutput{}, err
	}

	format := input.Format
	if format == "" {
		format = "json"
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(export.ExportRun(state, report), "", "  ")
		if err != nil {
			return nil, ExportRunOutput{}, fmt.Errorf("marshal export: %w", err)
		}
		return nil, ExportRunOutput{Format: format, Content: string(data)}, nil
	case "mermaid":
		return nil, ExportRunOutput{Format: format, Content: export.GenerateMermaid(state)}, nil
	default:
		return nil, ExportRunOutput{}, fmt.Errorf("unknown export format %q", format)
	}
}

// lookup finds a run by ID: finished runs first, then live snapshots.
func (s *DiveService) lookup(runID string) (*deepdive.State, string, error) {
	s.mu.Lock()
	result, done := s.results[runID]
	s.mu.Unlock()
	if done {
		return result.State, result.Report, nil
	}

	state, ok := s.engine.Snapshot(runID)
	if !ok {
		return nil, "", fmt.Errorf("unknown run %q", runID)
	}
	return state, "", nil
}

// buildDecision translates the wire-level tool input into a gate decision.
func buildDecision(input ResolveApprovalInput) (deepdive.Decision, error) {
	var kind deepdive.DecisionKind
	switch input.Decision {
	case "approve":
		kind = deepdive.DecisionApprove
	case "modify":
		kind = deepdive.DecisionModify
	case "reject":
		kind = deepdive.DecisionReject
	default:
		return deepdive.Decision{}, fmt.Errorf("unknown decision %q", input.Decision)
	}

	d := deepdive.Decision{Kind: kind, Note: input.Note}
	if len(input.Overrides) > 0 {
		d.Overrides = make(map[int]deepdive.TodoOverride, len(input.Overrides))
		for _, ov := range input.Overrides {
			d.Overrides[ov.TodoID] = deepdive.TodoOverride{
				RecommendedTable: ov.RecommendedTable,
				Feasibility:      deepdive.Feasibility(ov.Feasibility),
			}
		}
	}
	return d, nil
}
