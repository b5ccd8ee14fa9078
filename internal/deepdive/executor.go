package deepdive

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// TaskExecutor runs the ready frontier of a round: concurrently when the
// frontier and batch size allow it, otherwise one todo at a time. In-flight
// todos share no mutable state; outcomes are gathered and merged into the
// run state only after the whole batch resolves.
type TaskExecutor struct {
	tool     ToolRunner
	eval     Evaluator // nil means no evaluation
	policy   EvalPolicy
	progress *ProgressReporter
}

// NewTaskExecutor creates a TaskExecutor. eval may be nil; progress may be nil.
func NewTaskExecutor(tool ToolRunner, eval Evaluator, policy EvalPolicy, progress *ProgressReporter) *TaskExecutor {
	if policy == "" {
		policy = EvalAutoPass
	}
	return &TaskExecutor{
		tool:     tool,
		eval:     eval,
		policy:   policy,
		progress: progress,
	}
}

// todoOutcome is the result of one in-flight todo, private to its goroutine
// until the gather-then-merge step.
type todoOutcome struct {
	id            int
	completed     bool
	result        string
	failureReason string
	evalPassed    *bool
	evalScore     *float64
}

// ExecuteRound runs one frontier pass and returns how many todos it
// executed. Zero means the round is drained: nothing is pending with all
// dependencies completed.
func (te *TaskExecutor) ExecuteRound(ctx context.Context, state *State) (int, error) {
	ready := state.ReadyFrontier()
	if len(ready) == 0 {
		return 0, nil
	}

	if len(ready) >= 2 && state.ParallelBatchSize >= 2 {
		batch := ready
		if len(batch) > state.ParallelBatchSize {
			batch = batch[:state.ParallelBatchSize]
		}
		return len(batch), te.executeBatch(ctx, state, batch)
	}

	// Serial path: exactly one todo, lowest id first.
	return 1, te.executeSerial(ctx, state, ready[0])
}

// executeBatch fans the batch out, waits for every member, then merges all
// outcomes in one synchronization point and appends a single batch summary
// message.
func (te *TaskExecutor) executeBatch(ctx context.Context, state *State, batch []*Todo) error {
	outcomes := make([]todoOutcome, len(batch))
	snapshots := make([]Todo, len(batch))

	for i, t := range batch {
		if err := t.advance(StatusInProgress); err != nil {
			return err
		}
		snapshots[i] = *t
		te.emit(state.Round, t.ID, ProgressWorking, "")
	}

	// Goroutines never return an error: a collaborator failure is data on
	// the todo, and must not cancel sibling todos.
	var g errgroup.Group
	for i := range snapshots {
		g.Go(func() error {
			outcomes[i] = te.runOne(ctx, state.Objective, snapshots[i])
			return nil
		})
	}
	_ = g.Wait()

	var completed, failed int
	for _, out := range outcomes {
		te.merge(state, out)
		if out.completed {
			completed++
		} else {
			failed++
		}
	}

	state.Append("executor", fmt.Sprintf(
		"batch of %d resolved: %d completed, %d failed", len(batch), completed, failed))
	return nil
}

// executeSerial runs exactly one ready todo and appends a per-todo message.
func (te *TaskExecutor) executeSerial(ctx context.Context, state *State, t *Todo) error {
	if err := t.advance(StatusInProgress); err != nil {
		return err
	}
	te.emit(state.Round, t.ID, ProgressWorking, "")

	out := te.runOne(ctx, state.Objective, *t)
	te.merge(state, out)

	if out.completed {
		state.Append("executor", fmt.Sprintf("task %d completed: %s", t.ID, out.result))
	} else {
		state.Append("executor", fmt.Sprintf("task %d failed: %s", t.ID, out.failureReason))
	}
	return nil
}

// runOne executes a single todo against the tool and evaluator
// collaborators. It works on a todo copy and returns only an outcome;
// panics and errors are captured into a failed outcome.
func (te *TaskExecutor) runOne(ctx context.Context, objective string, t Todo) (out todoOutcome) {
	out = todoOutcome{id: t.ID}

	defer func() {
		if r := recover(); r != nil {
			out.completed = false
			out.failureReason = fmt.Sprintf("collaborator panic: %v", r)
		}
	}()

	if t.Feasibility == Infeasible {
		out.failureReason = "no viable data source"
		return out
	}

	res, err := te.tool.Execute(ctx, ToolRequest{
		Table:   t.RecommendedTable,
		Filters: map[string]string{"context": t.Task},
	})
	if err != nil {
		out.failureReason = fmt.Sprintf("tool error: %v", err)
		return out
	}
	if res.Status != ToolStatusOK {
		out.failureReason = res.Status
		return out
	}

	out.result = summarizeRows(t.RecommendedTable, res)

	if te.eval == nil {
		out.completed = true
		return out
	}

	ev, err := te.eval.Evaluate(ctx, objective, res.Data)
	if err != nil {
		if te.policy == EvalStrict {
			out.failureReason = "evaluator error"
			return out
		}
		// EvalAutoPass: tool success stands on its own.
		out.completed = true
		out.result += " (unevaluated)"
		return out
	}

	out.evalPassed = &ev.Passed
	out.evalScore = &ev.Score
	if !ev.Passed {
		out.failureReason = ev.Feedback
		if out.failureReason == "" {
			out.failureReason = "evaluation rejected the fetched data"
		}
		return out
	}

	out.completed = true
	if ev.Feedback != "" {
		out.result += "; " + ev.Feedback
	}
	return out
}

// merge writes one outcome onto the shared state. Called only from the
// orchestrating goroutine after the batch resolved.
func (te *TaskExecutor) merge(state *State, out todoOutcome) {
	t := state.Todo(out.id)
	if t == nil {
		return
	}

	t.EvalPassed = out.evalPassed
	t.EvalScore = out.evalScore

	if out.completed {
		_ = t.advance(StatusCompleted)
		t.Result = out.result
		state.CompletedResults[t.ID] = out.result
		te.emit(state.Round, t.ID, ProgressComplete, "")
	} else {
		_ = t.advance(StatusFailed)
		t.FailureReason = out.failureReason
		te.emit(state.Round, t.ID, ProgressFailed, out.failureReason)
	}

	state.ExecutedThisRound = append(state.ExecutedThisRound, t.ID)
}

// emit reports per-todo progress if a reporter is attached.
func (te *TaskExecutor) emit(round, todoID int, status ProgressStatus, msg string) {
	if te.progress != nil {
		te.progress.Emit(ProgressEvent{
			Round:   round,
			Phase:   PhaseExecuting,
			TodoID:  todoID,
			Status:  status,
			Message: msg,
		})
	}
}

// summarizeRows renders a short result line for a successful tool call.
func summarizeRows(table string, res ToolResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d row(s) from %q", len(res.Data), table)
	if len(res.Columns) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(res.Columns, ", "))
	}
	return b.String()
}
