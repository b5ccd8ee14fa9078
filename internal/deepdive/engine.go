package deepdive

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Ports bundles the collaborator implementations injected into an Engine.
// Evaluator and Checkpointer may be nil; a nil Approver auto-approves.
type Ports struct {
	Planner      Planner
	SchemaFinder SchemaFinder
	ToolRunner   ToolRunner
	Evaluator    Evaluator
	Approver     Approver
	Checkpointer Checkpointer
}

// RunResult is the terminal outcome of a run: the final state and the
// rendered report.
type RunResult struct {
	State  *State
	Report string
}

// Engine drives the deep-dive round loop: plan → classify → gate → execute
// → recurse, then summarize. Runs are single-writer: only the goroutine
// inside Run mutates a run's state, and concurrent readers are served
// phase-boundary snapshots, so the state itself carries no lock.
type Engine struct {
	cfg          Config
	planner      *TaskPlanner
	investigator *SchemaInvestigator
	executor     *TaskExecutor
	recursion    *RecursionController
	approver     Approver
	checkpoint   Checkpointer
	progress     *ProgressReporter

	mu        sync.Mutex
	snapshots map[string]*State
}

// EngineOption configures an Engine during construction.
type EngineOption func(*Engine)

// WithInvestigatorOptions forwards options to the schema investigator.
func WithInvestigatorOptions(opts ...InvestigatorOption) EngineOption {
	return func(e *Engine) {
		e.investigator = NewSchemaInvestigator(e.investigator.finder, opts...)
	}
}

// NewEngine wires an Engine from config and ports.
func NewEngine(cfg Config, ports Ports, opts ...EngineOption) *Engine {
	cfg = cfg.normalized()

	approver := ports.Approver
	if approver == nil {
		approver = AutoApprover{}
	}

	progress := NewProgressReporter()

	e := &Engine{
		cfg:          cfg,
		planner:      NewTaskPlanner(ports.Planner),
		investigator: NewSchemaInvestigator(ports.SchemaFinder),
		executor:     NewTaskExecutor(ports.ToolRunner, ports.Evaluator, cfg.EvalPolicy, progress),
		recursion:    NewRecursionController(cfg.FailureCap),
		approver:     approver,
		checkpoint:   ports.Checkpointer,
		progress:     progress,
		snapshots:    make(map[string]*State),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Progress returns the engine's progress event channel.
func (e *Engine) Progress() <-chan ProgressEvent {
	return e.progress.Subscribe()
}

// Close shuts down the progress reporter.
func (e *Engine) Close() {
	e.progress.Close()
}

// Run executes one deep dive to completion. It blocks while a plan waits at
// the approval gate; because the gate precedes execution within each round,
// no tool call is ever in flight during that wait. The returned error is
// non-nil only for context cancellation or an internal invariant breach;
// collaborator failures and terminal control-flow outcomes (rejection,
// depth limit) land in the report instead.
func (e *Engine) Run(ctx context.Context, objective string) (*RunResult, error) {
	return e.RunWithID(ctx, uuid.NewString(), objective)
}

// RunWithID is Run with a caller-chosen run ID, so callers that launch the
// run in the background can track it from the start.
func (e *Engine) RunWithID(ctx context.Context, runID, objective string) (*RunResult, error) {
	state := NewState(runID, objective, e.cfg)
	state.Append("orchestrator", fmt.Sprintf("deep dive started: %s", objective))
	e.publish(ctx, state)

	for {
		e.setPhase(state, PhasePlanning)
		if err := e.planner.PlanRound(ctx, state); err != nil {
			return nil, fmt.Errorf("deepdive: planning round %d: %w", state.Round, err)
		}

		e.setPhase(state, PhaseInvestigating)
		plan, err := e.investigator.Investigate(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("deepdive: investigating round %d: %w", state.Round, err)
		}

		if plan.UserApprovalRequired {
			e.setPhase(state, PhaseAwaitingApproval)
			e.publish(ctx, state)

			decision, err := e.approver.Decide(ctx, runID, *plan, pendingTodos(state))
			if err != nil {
				return nil, fmt.Errorf("deepdive: approval gate: %w", err)
			}
			switch decision.Kind {
			case DecisionReject:
				state.Aborted = true
				state.AbortReason = "plan rejected at approval gate"
				if decision.Note != "" {
					state.AbortReason += ": " + decision.Note
				}
				state.Append("gate", state.AbortReason)
				return e.finish(ctx, state), nil
			case DecisionModify:
				applyOverrides(state, decision.Overrides)
				state.Append("gate", "plan modified and cleared")
			default:
				state.Append("gate", "plan approved")
			}
		}

		e.setPhase(state, PhaseExecuting)
		state.ExecutedThisRound = nil
		for {
			n, err := e.executor.ExecuteRound(ctx, state)
			if err != nil {
				return nil, fmt.Errorf("deepdive: executing round %d: %w", state.Round, err)
			}
			if n == 0 {
				break
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		e.setPhase(state, PhaseRecursing)
		e.recursion.Assess(state)
		e.publish(ctx, state)

		if !ShouldRecurse(state) {
			return e.finish(ctx, state), nil
		}
		state.TriggerRecursion = false
		state.Round++
	}
}

// Snapshot returns the most recent phase-boundary snapshot for a run.
func (e *Engine) Snapshot(runID string) (*State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.snapshots[runID]
	return s, ok
}

// finish renders the report and records the terminal phase.
func (e *Engine) finish(ctx context.Context, state *State) *RunResult {
	if state.Aborted {
		e.setPhase(state, PhaseAborted)
	} else {
		e.setPhase(state, PhaseSummarizing)
	}
	report := Summarize(state)
	if !state.Aborted {
		state.Phase = PhaseComplete
	}
	state.Append("orchestrator", "deep dive finished")
	e.publish(ctx, state)

	return &RunResult{State: state, Report: report}
}

// setPhase records the phase and emits a phase-level progress event.
func (e *Engine) setPhase(state *State, phase Phase) {
	state.Phase = phase
	e.progress.Emit(ProgressEvent{
		Round:  state.Round,
		Phase:  phase,
		Status: ProgressWorking,
	})
}

// publish snapshots the state for concurrent readers and hands it to the
// checkpointing collaborator, if any.
func (e *Engine) publish(ctx context.Context, state *State) {
	snap := state.Clone()

	e.mu.Lock()
	e.snapshots[state.RunID] = snap
	e.mu.Unlock()

	if e.checkpoint != nil {
		if err := e.checkpoint.Checkpoint(ctx, snap); err != nil {
			log.Printf("deepdive: checkpoint for run %s: %v", state.RunID, err)
		}
	}
}

// pendingTodos returns the todos the gate exposes: everything still pending.
func pendingTodos(state *State) []*Todo {
	var out []*Todo
	for _, t := range state.Todos {
		if t.Status == StatusPending {
			out = append(out, t)
		}
	}
	return out
}
