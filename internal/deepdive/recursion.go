package deepdive

import (
	"fmt"
	"sort"
	"strings"
)

// RecursionController inspects the just-finished execution round and
// decides whether the run loops back to planning with a narrower
// sub-investigation or proceeds to the final summary.
type RecursionController struct {
	failureCap int
}

// NewRecursionController creates a controller that feeds at most failureCap
// failures into one refinement. Values below 1 fall back to the default of 3.
func NewRecursionController(failureCap int) *RecursionController {
	if failureCap < 1 {
		failureCap = DefaultConfig().FailureCap
	}
	return &RecursionController{failureCap: failureCap}
}

// Assess scans the round's failures and sets TriggerRecursion plus the
// refinement instruction for the next planning pass. The depth bound is a
// hard stop regardless of outstanding failures.
func (rc *RecursionController) Assess(state *State) {
	failures := rc.roundFailures(state)

	if len(failures) == 0 {
		state.TriggerRecursion = false
		state.Append("recursion", "no deeper analysis needed")
		return
	}

	if state.RecursionDepth >= state.MaxDepth {
		state.TriggerRecursion = false
		state.Append("recursion", fmt.Sprintf(
			"max recursion depth reached (%d); %d unresolved failure(s) remain", state.MaxDepth, len(failures)))
		return
	}

	selected := failures
	if len(selected) > rc.failureCap {
		selected = selected[:rc.failureCap]
	}

	state.Refinement = synthesizeRefinement(selected)
	state.RecursionDepth++
	state.TriggerRecursion = true
	state.Append("recursion", fmt.Sprintf(
		"recursing on %d of %d failure(s) at depth %d", len(selected), len(failures), state.RecursionDepth))
}

// ShouldRecurse is the routing decision: a pure function of the trigger flag.
func ShouldRecurse(state *State) bool {
	return state.TriggerRecursion
}

// roundFailures returns the failed todos among the ids executed in the most
// recent execution phase, ordered by id.
func (rc *RecursionController) roundFailures(state *State) []*Todo {
	ids := append([]int(nil), state.ExecutedThisRound...)
	sort.Ints(ids)

	var failures []*Todo
	for _, id := range ids {
		if t := state.Todo(id); t != nil && t.Status == StatusFailed {
			failures = append(failures, t)
		}
	}
	return failures
}

// synthesizeRefinement builds one combined instruction naming each selected
// failure and its reason.
func synthesizeRefinement(failures []*Todo) string {
	var b strings.Builder
	b.WriteString("The following investigation tasks failed and need a narrower follow-up:\n")
	for _, t := range failures {
		fmt.Fprintf(&b, "- task %d (%s): %s\n", t.ID, t.Task, t.FailureReason)
	}
	b.WriteString("Plan focused sub-investigations that isolate each root cause.")
	return b.String()
}
