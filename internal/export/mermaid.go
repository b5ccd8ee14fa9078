package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/netdive/internal/deepdive"
)

// GenerateMermaid produces a Mermaid graph TD diagram of the run's todo
// dependency graph. Todos are grouped by round; dependency edges become
// arrows from prerequisite to dependent, and each node is classed by its
// terminal status.
func GenerateMermaid(state *deepdive.State) string {
	byRound := make(map[int][]*deepdive.Todo)
	for _, t := range state.Todos {
		byRound[t.Round] = append(byRound[t.Round], t)
	}
	rounds := make([]int, 0, len(byRound))
	for r := range byRound {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, r := range rounds {
		todos := byRound[r]
		sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })

		sb.WriteString(fmt.Sprintf("  subgraph R%d[\"round %d\"]\n", r, r))
		for _, t := range todos {
			sb.WriteString(fmt.Sprintf("    T%d[\"%s\"]\n", t.ID, nodeLabel(t)))
		}
		sb.WriteString("  end\n")
	}

	// Dependency edges: prerequisite --> dependent.
	for _, t := range state.Todos {
		deps := make([]int, len(t.Deps))
		copy(deps, t.Deps)
		sort.Ints(deps)
		for _, dep := range deps {
			sb.WriteString(fmt.Sprintf("  T%d --> T%d\n", dep, t.ID))
		}
	}

	// Status classes.
	writeClass(&sb, state, deepdive.StatusCompleted, "done")
	writeClass(&sb, state, deepdive.StatusFailed, "failed")
	writeClass(&sb, state, deepdive.StatusPending, "pending")
	sb.WriteString("  classDef done fill:#d4edda,stroke:#155724\n")
	sb.WriteString("  classDef failed fill:#f8d7da,stroke:#721c24\n")
	sb.WriteString("  classDef pending fill:#fff3cd,stroke:#856404\n")

	return sb.String()
}

// nodeLabel truncates long task text so diagrams stay readable. Truncation
// counts runes, not bytes, so multi-byte task text stays valid UTF-8.
func nodeLabel(t *deepdive.Todo) string {
	label := t.Task
	if runes := []rune(label); len(runes) > 40 {
		label = string(runes[:37]) + "..."
	}
	return fmt.Sprintf("%d: %s", t.ID, strings.ReplaceAll(label, `"`, "'"))
}

// writeClass emits one "class T1,T2 name" line for todos in the given status.
func writeClass(sb *strings.Builder, state *deepdive.State, status deepdive.TodoStatus, class string) {
	var ids []int
	for _, t := range state.Todos {
		if t.Status == status {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("T%d", id)
	}
	sb.WriteString(fmt.Sprintf("  class %s %s\n", strings.Join(parts, ","), class))
}
