package mcptools

// --- MCP Tool Types for the deep-dive server mode (--serve-mcp) ---
// These tools are exposed when the binary runs as an MCP server for an AI
// operator. They let the operator drive investigations through structured
// tools instead of shelling out.

// StartInvestigationInput is the input for the start_investigation MCP tool.
type StartInvestigationInput struct {
	Objective string `json:"objective" jsonschema:"the diagnostic objective in plain language"`
}

// StartInvestigationOutput is the result of the start_investigation MCP tool.
type StartInvestigationOutput struct {
	RunID  string `json:"runId"`
	Status string `json:"status"` // "started"
}

// GetPendingPlanInput is the input for the get_pending_plan MCP tool.
type GetPendingPlanInput struct {
	RunID string `json:"runId" jsonschema:"run identifier returned by start_investigation"`
}

// GetPendingPlanOutput is the result of the get_pending_plan MCP tool.
// Found is false when the run is not parked at the approval gate.
type GetPendingPlanOutput struct {
	Found           bool           `json:"found"`
	Token           string         `json:"token,omitempty"`
	FeasibleTasks   []int          `json:"feasibleTasks,omitempty"`
	UncertainTasks  []int          `json:"uncertainTasks,omitempty"`
	InfeasibleTasks []int          `json:"infeasibleTasks,omitempty"`
	Recommendations map[int]string `json:"recommendations,omitempty"`
	Todos           []PlanTodo     `json:"todos,omitempty"`
}

// PlanTodo is one pending task as shown at the approval gate.
type PlanTodo struct {
	ID               int    `json:"id"`
	Task             string `json:"task"`
	Feasibility      string `json:"feasibility"`
	RecommendedTable string `json:"recommendedTable,omitempty"`
}

// ResolveApprovalInput is the input for the resolve_approval MCP tool.
type ResolveApprovalInput struct {
	Token     string         `json:"token" jsonschema:"resume token from get_pending_plan"`
	Decision  string         `json:"decision" jsonschema:"approve, modify, or reject"`
	Note      string         `json:"note,omitempty" jsonschema:"optional operator note"`
	Overrides []TodoOverride `json:"overrides,omitempty" jsonschema:"per-task corrections for a modify decision"`
}

// TodoOverride corrects one task before execution.
type TodoOverride struct {
	TodoID           int    `json:"todoId"`
	RecommendedTable string `json:"recommendedTable,omitempty"`
	Feasibility      string `json:"feasibility,omitempty" jsonschema:"feasible, uncertain, or infeasible"`
}

// ResolveApprovalOutput is the result of the resolve_approval MCP tool.
type ResolveApprovalOutput struct {
	Resolved bool   `json:"resolved"`
	Message  string `json:"message,omitempty"`
}

// GetRunStatusInput is the input for the get_run_status MCP tool.
type GetRunStatusInput struct {
	RunID string `json:"runId" jsonschema:"run identifier"`
}

// GetRunStatusOutput is the result of the get_run_status MCP tool.
type GetRunStatusOutput struct {
	RunID          string         `json:"runId"`
	Phase          string         `json:"phase"`
	Round          int            `json:"round"`
	RecursionDepth int            `json:"recursionDepth"`
	TodoCounts     map[string]int `json:"todoCounts"`
	Aborted        bool           `json:"aborted"`
	AbortReason    string         `json:"abortReason,omitempty"`
	Report         string         `json:"report,omitempty"`
}

// ExportRunInput is the input for the export_run MCP tool.
type ExportRunInput struct {
	RunID  string `json:"runId" jsonschema:"run identifier"`
	Format string `json:"format,omitempty" jsonschema:"json or mermaid (default: json)"`
}

// ExportRunOutput is the result of the export_run MCP tool.
type ExportRunOutput struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}
