package collab

import (
	"context"

	"github.com/dusk-indust/netdive/internal/deepdive"
)

// Remote port adapters: each implements one engine port by calling a
// collaborator endpoint. Endpoints come from configuration or probing.

// Compile-time port checks.
var (
	_ deepdive.Planner      = (*RemotePlanner)(nil)
	_ deepdive.SchemaFinder = (*RemoteSchemaFinder)(nil)
	_ deepdive.ToolRunner   = (*RemoteToolRunner)(nil)
	_ deepdive.Evaluator    = (*RemoteEvaluator)(nil)
)

// RemotePlanner is the planner port backed by a planner collaborator.
type RemotePlanner struct {
	Client   Client
	Endpoint string
}

// Plan forwards the prompt and returns the model's raw text.
func (p *RemotePlanner) Plan(ctx context.Context, prompt string) (string, error) {
	resp, err := p.Client.Plan(ctx, p.Endpoint, PlanRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}
	return resp.Output, nil
}

// RemoteSchemaFinder is the schema port backed by a schema collaborator.
type RemoteSchemaFinder struct {
	Client   Client
	Endpoint string
}

// Discover forwards the keyword query.
func (f *RemoteSchemaFinder) Discover(ctx context.Context, query string) (map[string]deepdive.TableSchema, error) {
	resp, err := f.Client.Discover(ctx, f.Endpoint, DiscoverRequest{Query: query})
	if err != nil {
		return nil, err
	}
	return resp.Tables, nil
}

// RemoteToolRunner is the tool port backed by a tool collaborator.
type RemoteToolRunner struct {
	Client   Client
	Endpoint string
}

// Execute forwards the table query.
func (r *RemoteToolRunner) Execute(ctx context.Context, req deepdive.ToolRequest) (deepdive.ToolResult, error) {
	resp, err := r.Client.Execute(ctx, r.Endpoint, ExecuteRequest{
		Table:   req.Table,
		Filters: req.Filters,
	})
	if err != nil {
		return deepdive.ToolResult{}, err
	}
	return deepdive.ToolResult{
		Status:  resp.Status,
		Columns: resp.Columns,
		Data:    resp.Data,
	}, nil
}

// RemoteEvaluator is the evaluator port backed by an evaluator collaborator.
type RemoteEvaluator struct {
	Client   Client
	Endpoint string
}

// Evaluate forwards the objective and rows for judgement.
func (e *RemoteEvaluator) Evaluate(ctx context.Context, objective string, rows []map[string]any) (deepdive.Evaluation, error) {
	resp, err := e.Client.Evaluate(ctx, e.Endpoint, EvaluateRequest{
		Objective: objective,
		Rows:      rows,
	})
	if err != nil {
		return deepdive.Evaluation{}, err
	}
	return deepdive.Evaluation{
		Passed:   resp.Passed,
		Score:    resp.Score,
		Feedback: resp.Feedback,
	}, nil
}
