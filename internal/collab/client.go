package collab

import "context"

// Client is the interface for a collaborator client: one typed method per
// skill plus card discovery.
type Client interface {
	// Plan asks a planner collaborator for raw plan text.
	Plan(ctx context.Context, endpoint string, req PlanRequest) (*PlanResponse, error)

	// Discover queries a schema collaborator.
	Discover(ctx context.Context, endpoint string, req DiscoverRequest) (*DiscoverResponse, error)

	// Execute runs a table query on a tool collaborator.
	Execute(ctx context.Context, endpoint string, req ExecuteRequest) (*ExecuteResponse, error)

	// Evaluate asks an evaluator collaborator for a verdict.
	Evaluate(ctx context.Context, endpoint string, req EvaluateRequest) (*EvaluateResponse, error)

	// DiscoverCard fetches the collaborator card from the well-known URI.
	DiscoverCard(ctx context.Context, baseURL string) (*Card, error)
}
