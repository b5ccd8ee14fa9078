package deepdive

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time interface checks.
var (
	_ Approver = (*AutoApprover)(nil)
	_ Approver = (*PendingGate)(nil)
)

// AutoApprover resolves every gate with a fixed decision. Used for
// non-interactive runs and tests.
type AutoApprover struct {
	Kind DecisionKind
}

// Decide returns the fixed decision without blocking.
func (a AutoApprover) Decide(_ context.Context, _ string, _ ExecutionPlan, _ []*Todo) (Decision, error) {
	kind := a.Kind
	if kind == "" {
		kind = DecisionApprove
	}
	return Decision{Kind: kind}, nil
}

// PendingApproval is one plan waiting for an external decision.
type PendingApproval struct {
	Token     string        `json:"token"`
	RunID     string        `json:"runId"`
	Plan      ExecutionPlan `json:"plan"`
	Todos     []Todo        `json:"todos"`
	Requested time.Time     `json:"requested"`
}

// PendingGate is the suspending Approver. Decide parks the run goroutine on
// a channel and exposes the pending plan under a resume token; an external
// actor resolves it arbitrarily later via Resolve. No tool call is ever in
// flight while a run is parked here, so resolution is always safe.
type PendingGate struct {
	mu      sync.Mutex
	pending map[string]*pendingEntry
	onPark  func(PendingApproval)
}

type pendingEntry struct {
	view PendingApproval
	ch   chan Decision
}

// GateOption configures a PendingGate.
type GateOption func(*PendingGate)

// WithParkCallback registers a callback invoked when a run parks at the
// gate; hosts use it to surface the plan immediately.
func WithParkCallback(fn func(PendingApproval)) GateOption {
	return func(g *PendingGate) {
		g.onPark = fn
	}
}

// NewPendingGate creates an empty PendingGate.
func NewPendingGate(opts ...GateOption) *PendingGate {
	g := &PendingGate{
		pending: make(map[string]*pendingEntry),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide parks until Resolve is called with this approval's token, or the
// context is cancelled.
func (g *PendingGate) Decide(ctx context.Context, runID string, plan ExecutionPlan, todos []*Todo) (Decision, error) {
	snapshot := make([]Todo, 0, len(todos))
	for _, t := range todos {
		snapshot = append(snapshot, *t)
	}

	entry := &pendingEntry{
		view: PendingApproval{
			Token:     uuid.NewString(),
			RunID:     runID,
			Plan:      plan,
			Todos:     snapshot,
			Requested: time.Now(),
		},
		ch: make(chan Decision, 1),
	}

	g.mu.Lock()
	g.pending[entry.view.Token] = entry
	g.mu.Unlock()

	if g.onPark != nil {
		g.onPark(entry.view)
	}

	defer func() {
		g.mu.Lock()
		delete(g.pending, entry.view.Token)
		g.mu.Unlock()
	}()

	select {
	case d := <-entry.ch:
		return d, nil
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}
}

// Pending lists parked approvals, oldest first.
func (g *PendingGate) Pending() []PendingApproval {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]PendingApproval, 0, len(g.pending))
	for _, e := range g.pending {
		out = append(out, e.view)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Requested.Before(out[j].Requested) })
	return out
}

// PendingForRun returns the parked approval for a run, if any.
func (g *PendingGate) PendingForRun(runID string) (PendingApproval, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, e := range g.pending {
		if e.view.RunID == runID {
			return e.view, true
		}
	}
	return PendingApproval{}, false
}

// Resolve delivers a decision to the parked run identified by token.
func (g *PendingGate) Resolve(token string, d Decision) error {
	g.mu.Lock()
	entry, ok := g.pending[token]
	g.mu.Unlock()

	if !ok {
		return fmt.Errorf("deepdive: no pending approval for token %q", token)
	}

	switch d.Kind {
	case DecisionApprove, DecisionModify, DecisionReject:
	default:
		return fmt.Errorf("deepdive: unknown decision kind %q", d.Kind)
	}

	entry.ch <- d
	return nil
}

// applyOverrides writes modify-decision corrections onto the todos and
// rebuilds the plan buckets so downstream phases see the operator's view.
// The gate is not re-entered: a modify decision clears it.
func applyOverrides(state *State, overrides map[int]TodoOverride) {
	for id, ov := range overrides {
		t := state.Todo(id)
		if t == nil || t.Status != StatusPending {
			continue
		}
		if ov.RecommendedTable != "" {
			t.RecommendedTable = ov.RecommendedTable
		}
		if ov.Feasibility != FeasibilityUnset {
			t.Feasibility = ov.Feasibility
		}
	}

	if state.Plan == nil {
		return
	}
	plan := &ExecutionPlan{
		Recommendations:      state.Plan.Recommendations,
		UserApprovalRequired: state.Plan.UserApprovalRequired,
	}
	for _, t := range state.Todos {
		if t.Status != StatusPending {
			continue
		}
		switch t.Feasibility {
		case Feasible:
			plan.FeasibleTasks = append(plan.FeasibleTasks, t.ID)
		case Uncertain:
			plan.UncertainTasks = append(plan.UncertainTasks, t.ID)
		case Infeasible:
			plan.InfeasibleTasks = append(plan.InfeasibleTasks, t.ID)
		}
	}
	state.Plan = plan
}
