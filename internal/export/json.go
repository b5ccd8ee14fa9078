package export

import (
	"time"

	"github.com/dusk-indust/netdive/internal/deepdive"
)

// RunExport is the top-level JSON export structure.
type RunExport struct {
	RunID      string       `json:"runId"`
	Objective  string       `json:"objective"`
	Phase      string       `json:"phase"`
	Rounds     int          `json:"rounds"`
	Aborted    bool         `json:"aborted"`
	ExportedAt string       `json:"exportedAt"`
	Todos      []TodoExport `json:"todos"`
	Report     string       `json:"report,omitempty"`
}

// TodoExport describes a single task from the run.
type TodoExport struct {
	ID               int    `json:"id"`
	Task             string `json:"task"`
	Status           string `json:"status"`
	Feasibility      string `json:"feasibility,omitempty"`
	RecommendedTable string `json:"recommendedTable,omitempty"`
	Round            int    `json:"round"`
	Dependencies     []int  `json:"dependencies,omitempty"`
	Result           string `json:"result,omitempty"`
	FailureReason    string `json:"failureReason,omitempty"`
}

// ExportRun builds a RunExport from a run state and an optional report.
func ExportRun(state *deepdive.State, report string) *RunExport {
	out := &RunExport{
		RunID:      state.RunID,
		Objective:  state.Objective,
		Phase:      string(state.Phase),
		Rounds:     state.Round + 1,
		Aborted:    state.Aborted,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Report:     report,
	}
	for _, t := range state.Todos {
		out.Todos = append(out.Todos, TodoExport{
			ID:               t.ID,
			Task:             t.Task,
			Status:           string(t.Status),
			Feasibility:      string(t.Feasibility),
			RecommendedTable: t.RecommendedTable,
			Round:            t.Round,
			Dependencies:     t.Deps,
			Result:           t.Result,
			FailureReason:    t.FailureReason,
		})
	}
	return out
}
