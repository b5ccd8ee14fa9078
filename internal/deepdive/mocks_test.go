package deepdive

import "context"

// Function-type mocks for the collaborator ports.

type plannerFunc func(ctx context.Context, prompt string) (string, error)

func (f plannerFunc) Plan(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type finderFunc func(ctx context.Context, query string) (map[string]TableSchema, error)

func (f finderFunc) Discover(ctx context.Context, query string) (map[string]TableSchema, error) {
	return f(ctx, query)
}

type toolFunc func(ctx context.Context, req ToolRequest) (ToolResult, error)

func (f toolFunc) Execute(ctx context.Context, req ToolRequest) (ToolResult, error) {
	return f(ctx, req)
}

type evalFunc func(ctx context.Context, objective string, rows []map[string]any) (Evaluation, error)

func (f evalFunc) Evaluate(ctx context.Context, objective string, rows []map[string]any) (Evaluation, error) {
	return f(ctx, objective, rows)
}

// okTool returns a tool that answers every request with the given rows.
func okTool(rows []map[string]any) toolFunc {
	return func(_ context.Context, _ ToolRequest) (ToolResult, error) {
		return ToolResult{Status: ToolStatusOK, Columns: []string{"hostname"}, Data: rows}, nil
	}
}

// confirmingFinder discovers exactly the named tables for any query.
func confirmingFinder(tables ...string) finderFunc {
	return func(_ context.Context, _ string) (map[string]TableSchema, error) {
		out := make(map[string]TableSchema, len(tables))
		for _, name := range tables {
			out[name] = TableSchema{Fields: []string{"hostname", "state"}}
		}
		return out, nil
	}
}

// emptyFinder discovers nothing for any query.
func emptyFinder() finderFunc {
	return func(_ context.Context, _ string) (map[string]TableSchema, error) {
		return map[string]TableSchema{}, nil
	}
}
