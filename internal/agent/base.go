package agent

import (
	"context"

	"github.com/dusk-indust/netdive/internal/collab"
)

// Compile-time interface check.
var _ Agent = (*BaseAgent)(nil)

// BaseAgent provides shared boilerplate for specialist collaborators: it
// composes a collab server and implements the Agent lifecycle. Specialists
// embed BaseAgent and register their skill handler at construction.
type BaseAgent struct {
	server *collab.Server
}

// NewBaseAgent creates a BaseAgent serving the given card and skill handlers.
func NewBaseAgent(card collab.Card, opts ...collab.ServerOption) *BaseAgent {
	return &BaseAgent{
		server: collab.NewServer(card, opts...),
	}
}

// Card returns the agent's collaborator card.
func (b *BaseAgent) Card() collab.Card {
	return b.server.Card()
}

// Log returns the agent's invocation log.
func (b *BaseAgent) Log() *collab.InvocationLog {
	return b.server.Log()
}

// Start launches the agent's HTTP server on the given address.
func (b *BaseAgent) Start(ctx context.Context, addr string) error {
	return b.server.Start(ctx, addr)
}

// Stop gracefully shuts down the agent.
func (b *BaseAgent) Stop(ctx context.Context) error {
	return b.server.Stop(ctx)
}
