package deepdive

import (
	"fmt"
	"time"
)

// --- Enums ---

// TodoStatus is the lifecycle state of a single investigation todo.
// Transitions are monotonic: pending → in-progress → completed | failed.
type TodoStatus string

const (
	StatusPending    TodoStatus = "pending"
	StatusInProgress TodoStatus = "in-progress"
	StatusCompleted  TodoStatus = "completed"
	StatusFailed     TodoStatus = "failed"
)

// IsTerminal returns true if the status is a final state.
func (s TodoStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// rank orders statuses for the monotonicity check.
func (s TodoStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	default:
		return -1
	}
}

// Feasibility classifies whether a todo's question can be answered against
// the currently discovered schema.
type Feasibility string

const (
	// FeasibilityUnset means the investigator has not classified the todo yet.
	FeasibilityUnset Feasibility = ""

	// Feasible: the heuristic table hint exists and schema discovery
	// confirmed the table is present.
	Feasible Feasibility = "feasible"

	// Uncertain: discovery returned signal but nothing that confirms the
	// hint. A human decision is required before execution.
	Uncertain Feasibility = "uncertain"

	// Infeasible: no table hint and discovery returned nothing relevant.
	Infeasible Feasibility = "infeasible"
)

// Phase identifies where a run currently is in the round loop.
type Phase string

const (
	PhasePlanning         Phase = "planning"
	PhaseInvestigating    Phase = "investigating"
	PhaseAwaitingApproval Phase = "awaiting-approval"
	PhaseExecuting        Phase = "executing"
	PhaseRecursing        Phase = "recursing"
	PhaseSummarizing      Phase = "summarizing"
	PhaseComplete         Phase = "complete"
	PhaseAborted          Phase = "aborted"
)

// --- Core types ---

// Todo is one atomic investigation unit. Todos are created by the planner
// (round 0) or the recursion controller (later rounds), mutated in place by
// the investigator and executor, and never removed: accumulated todos form
// the audit trail of the whole run.
type Todo struct {
	ID               int         `json:"id"`
	Task             string      `json:"task"`
	Status           TodoStatus  `json:"status"`
	Deps             []int       `json:"deps,omitempty"`
	Feasibility      Feasibility `json:"feasibility,omitempty"`
	RecommendedTable string      `json:"recommendedTable,omitempty"`
	SchemaNotes      string      `json:"schemaNotes,omitempty"`
	EvalPassed       *bool       `json:"evalPassed,omitempty"`
	EvalScore        *float64    `json:"evalScore,omitempty"`
	FailureReason    string      `json:"failureReason,omitempty"`
	Result           string      `json:"result,omitempty"`
	Round            int         `json:"round"`
}

// advance moves the todo to next, rejecting any status regression.
func (t *Todo) advance(next TodoStatus) error {
	if t.Status.IsTerminal() || next.rank() < t.Status.rank() {
		return fmt.Errorf("deepdive: todo %d: illegal status transition %s → %s", t.ID, t.Status, next)
	}
	t.Status = next
	return nil
}

// ExecutionPlan buckets the classified pending todos of a round and carries
// one recommendation line per todo id.
type ExecutionPlan struct {
	FeasibleTasks        []int          `json:"feasibleTasks"`
	UncertainTasks       []int          `json:"uncertainTasks"`
	InfeasibleTasks      []int          `json:"infeasibleTasks"`
	Recommendations      map[int]string `json:"recommendations"`
	UserApprovalRequired bool           `json:"userApprovalRequired"`
}

// Message is one entry in the append-only run transcript.
type Message struct {
	Role    string    `json:"role"` // "orchestrator", "planner", "executor", ...
	Content string    `json:"content"`
	Round   int       `json:"round"`
	Time    time.Time `json:"time"`
}

// State is the full orchestration state of one deep-dive run. It is written
// only by the engine goroutine: concurrent todo executions report results
// back and the engine merges them after the batch resolves, so no lock is
// needed.
type State struct {
	RunID      string         `json:"runId"`
	Objective  string         `json:"objective"`
	Transcript []Message      `json:"transcript"`
	Todos      []*Todo        `json:"todos"`
	Plan       *ExecutionPlan `json:"plan,omitempty"`

	// CompletedResults maps todo id → result text for completed todos.
	CompletedResults map[int]string `json:"completedResults"`

	RecursionDepth    int    `json:"recursionDepth"`
	MaxDepth          int    `json:"maxDepth"`
	TriggerRecursion  bool   `json:"triggerRecursion"`
	ParallelBatchSize int    `json:"parallelBatchSize"`
	Refinement        string `json:"refinement,omitempty"`
	Round             int    `json:"round"`
	Phase             Phase  `json:"phase"`

	Aborted     bool   `json:"aborted"`
	AbortReason string `json:"abortReason,omitempty"`

	// ExecutedThisRound lists the todo ids run in the most recent execution
	// phase. The recursion controller triages only these failures.
	ExecutedThisRound []int `json:"executedThisRound,omitempty"`

	nextID int
}

// NewState creates a run state seeded from cfg.
func NewState(runID, objective string, cfg Config) *State {
	return &State{
		RunID:             runID,
		Objective:         objective,
		CompletedResults:  make(map[int]string),
		MaxDepth:          cfg.MaxDepth,
		ParallelBatchSize: cfg.ParallelBatchSize,
		Phase:             PhasePlanning,
		nextID:            1,
	}
}

// NewTodo appends a fresh pending todo and returns it. IDs are assigned
// sequentially per run and never reused.
func (s *State) NewTodo(task string, deps []int) *Todo {
	if s.nextID <= 0 {
		// State was rebuilt from a snapshot; resume after the highest id.
		s.nextID = 1
		for _, t := range s.Todos {
			if t.ID >= s.nextID {
				s.nextID = t.ID + 1
			}
		}
	}
	t := &Todo{
		ID:     s.nextID,
		Task:   task,
		Status: StatusPending,
		Deps:   deps,
		Round:  s.Round,
	}
	s.nextID++
	s.Todos = append(s.Todos, t)
	return t
}

// Todo returns the todo with the given id, or nil.
func (s *State) Todo(id int) *Todo {
	for _, t := range s.Todos {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Append adds a transcript message stamped with the current round.
func (s *State) Append(role, content string) {
	s.Transcript = append(s.Transcript, Message{
		Role:    role,
		Content: content,
		Round:   s.Round,
		Time:    time.Now(),
	})
}

// depsCompleted reports whether every dependency of t is completed.
func (s *State) depsCompleted(t *Todo) bool {
	for _, dep := range t.Deps {
		d := s.Todo(dep)
		if d == nil || d.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// ReadyFrontier returns pending todos whose dependencies are all completed,
// ordered by id.
func (s *State) ReadyFrontier() []*Todo {
	var ready []*Todo
	for _, t := range s.Todos {
		if t.Status == StatusPending && s.depsCompleted(t) {
			ready = append(ready, t)
		}
	}
	return ready
}

// Clone returns a deep copy of the state, safe to hand to concurrent
// readers and to the checkpointing collaborator.
func (s *State) Clone() *State {
	out := *s

	out.Transcript = append([]Message(nil), s.Transcript...)
	out.ExecutedThisRound = append([]int(nil), s.ExecutedThisRound...)

	out.Todos = make([]*Todo, len(s.Todos))
	for i, t := range s.Todos {
		c := *t
		c.Deps = append([]int(nil), t.Deps...)
		if t.EvalPassed != nil {
			v := *t.EvalPassed
			c.EvalPassed = &v
		}
		if t.EvalScore != nil {
			v := *t.EvalScore
			c.EvalScore = &v
		}
		out.Todos[i] = &c
	}

	out.CompletedResults = make(map[int]string, len(s.CompletedResults))
	for k, v := range s.CompletedResults {
		out.CompletedResults[k] = v
	}

	if s.Plan != nil {
		p := *s.Plan
		p.FeasibleTasks = append([]int(nil), s.Plan.FeasibleTasks...)
		p.UncertainTasks = append([]int(nil), s.Plan.UncertainTasks...)
		p.InfeasibleTasks = append([]int(nil), s.Plan.InfeasibleTasks...)
		p.Recommendations = make(map[int]string, len(s.Plan.Recommendations))
		for k, v := range s.Plan.Recommendations {
			p.Recommendations[k] = v
		}
		out.Plan = &p
	}

	return &out
}

// CountByStatus tallies todos per status across all rounds.
func (s *State) CountByStatus() map[TodoStatus]int {
	counts := make(map[TodoStatus]int, 4)
	for _, t := range s.Todos {
		counts[t.Status]++
	}
	return counts
}
