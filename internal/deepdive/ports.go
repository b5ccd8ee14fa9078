package deepdive

import "context"

// The engine talks to every external collaborator through one of these
// ports. Implementations live elsewhere: internal/agent provides local
// in-process collaborators, internal/collab provides HTTP-backed remote
// ones, and tests inject mocks.

// Planner produces the model's raw plan text for a planning prompt. The
// engine owns parsing; a planner implementation only returns what the model
// said.
type Planner interface {
	Plan(ctx context.Context, prompt string) (string, error)
}

// TableSchema describes one discoverable telemetry table.
type TableSchema struct {
	Fields      []string `json:"fields"`
	Description string   `json:"description,omitempty"`
}

// SchemaFinder answers keyword queries against the discovered data schema.
// An empty result is a valid "no match" signal, not an error.
type SchemaFinder interface {
	Discover(ctx context.Context, query string) (map[string]TableSchema, error)
}

// Tool-execution result statuses, as reported by the tool collaborator.
const (
	ToolStatusOK             = "OK"
	ToolStatusNoData         = "NO_DATA_FOUND"
	ToolStatusSchemaNotFound = "SCHEMA_NOT_FOUND"
)

// ToolRequest asks the tool collaborator to fetch rows from a table.
type ToolRequest struct {
	Table   string            `json:"table"`
	Filters map[string]string `json:"filters,omitempty"`
}

// ToolResult is the structured outcome of a tool execution.
type ToolResult struct {
	Status  string           `json:"status"`
	Columns []string         `json:"columns,omitempty"`
	Data    []map[string]any `json:"data,omitempty"`
}

// ToolRunner executes a table query against the external data source.
type ToolRunner interface {
	Execute(ctx context.Context, req ToolRequest) (ToolResult, error)
}

// Evaluation is the evaluator's judgement of whether fetched rows actually
// answer the objective.
type Evaluation struct {
	Passed   bool    `json:"passed"`
	Score    float64 `json:"score"` // in [0,1]
	Feedback string  `json:"feedback,omitempty"`
}

// Evaluator judges fetched data against the run objective. A nil Evaluator
// on the engine means "no evaluation": tool success alone completes a todo.
type Evaluator interface {
	Evaluate(ctx context.Context, objective string, rows []map[string]any) (Evaluation, error)
}

// DecisionKind is the approval verdict for a pending execution plan.
type DecisionKind string

const (
	DecisionApprove DecisionKind = "approve"
	DecisionModify  DecisionKind = "modify"
	DecisionReject  DecisionKind = "reject"
)

// TodoOverride carries per-todo operator corrections attached to a modify
// decision. Zero-valued fields leave the todo untouched.
type TodoOverride struct {
	RecommendedTable string      `json:"recommendedTable,omitempty"`
	Feasibility      Feasibility `json:"feasibility,omitempty"`
}

// Decision resolves an approval gate.
type Decision struct {
	Kind      DecisionKind         `json:"kind"`
	Overrides map[int]TodoOverride `json:"overrides,omitempty"`
	Note      string               `json:"note,omitempty"`
}

// Approver resolves the approval gate for a plan that contains non-feasible
// tasks. Decide may block arbitrarily long; the engine holds no tool call
// in flight while waiting, so resumption is always safe.
type Approver interface {
	Decide(ctx context.Context, runID string, plan ExecutionPlan, todos []*Todo) (Decision, error)
}

// Checkpointer persists run state at round boundaries and before the
// approval gate. Durability is the checkpointing collaborator's concern;
// the engine only hands over snapshots.
type Checkpointer interface {
	Checkpoint(ctx context.Context, state *State) error
}
