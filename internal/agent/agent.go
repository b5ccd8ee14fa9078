package agent

import (
	"context"

	"github.com/dusk-indust/netdive/internal/collab"
)

// Agent is the interface all specialist collaborators implement.
type Agent interface {
	// Card returns the agent's collaborator card.
	Card() collab.Card

	// Start launches the agent's HTTP server on the given address.
	Start(ctx context.Context, addr string) error

	// Stop gracefully shuts down the agent.
	Stop(ctx context.Context) error
}

// version is set by goreleaser at build time.
var version = "dev"

// Role identifies a specialist collaborator type.
type Role string

const (
	RolePlanner   Role = "planner"
	RoleSchema    Role = "schema"
	RoleTool      Role = "tool"
	RoleEvaluator Role = "evaluator"
)
