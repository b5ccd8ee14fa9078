package deepdive

import (
	"fmt"
	"strings"
)

// Summarize renders the consolidated report over every round's todos. It is
// pure aggregation: no state is mutated. Aborted runs and depth-limit stops
// are reported plainly; they are outcomes, not errors.
func Summarize(state *State) string {
	counts := state.CountByStatus()

	var b strings.Builder
	fmt.Fprintf(&b, "# Deep dive report: %s\n\n", state.Objective)

	if state.Aborted {
		fmt.Fprintf(&b, "> Run aborted: %s\n\n", state.AbortReason)
	}

	fmt.Fprintf(&b, "Rounds: %d (recursion depth %d of %d)\n",
		state.Round+1, state.RecursionDepth, state.MaxDepth)
	fmt.Fprintf(&b, "Tasks: %d total, %d completed, %d failed, %d pending\n\n",
		len(state.Todos),
		counts[StatusCompleted],
		counts[StatusFailed],
		counts[StatusPending]+counts[StatusInProgress])

	byRound := make(map[int][]*Todo)
	maxRound := 0
	for _, t := range state.Todos {
		byRound[t.Round] = append(byRound[t.Round], t)
		if t.Round > maxRound {
			maxRound = t.Round
		}
	}

	for round := 0; round <= maxRound; round++ {
		todos := byRound[round]
		if len(todos) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## Round %d\n\n", round)
		for _, t := range todos {
			fmt.Fprintf(&b, "- [%s] task %d: %s\n", t.Status, t.ID, t.Task)
			switch {
			case t.Status == StatusCompleted && t.Result != "":
				fmt.Fprintf(&b, "  result: %s\n", t.Result)
			case t.Status == StatusFailed:
				fmt.Fprintf(&b, "  reason: %s\n", t.FailureReason)
			}
		}
		b.WriteString("\n")
	}

	if counts[StatusFailed] > 0 && !state.Aborted {
		if state.RecursionDepth >= state.MaxDepth {
			b.WriteString("Unresolved failures remain; the recursion depth limit was reached.\n")
		} else {
			b.WriteString("Unresolved failures remain.\n")
		}
	}

	return b.String()
}
