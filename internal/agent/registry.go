package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/dusk-indust/netdive/internal/deepdive"
)

// AgentFactory is a constructor that creates an Agent.
type AgentFactory func() Agent

// Registry maps agent roles to their factory constructors and manages
// the lifecycle of spawned agents.
type Registry struct {
	mu        sync.Mutex
	factories map[Role]AgentFactory
	spawned   []Agent
}

// NewRegistry creates a Registry pre-registered with all specialist agents.
// A nil snapshot serves the built-in catalog and an empty dataset.
func NewRegistry(snapshot *Snapshot) *Registry {
	catalog := DefaultCatalog
	if snapshot == nil {
		snapshot = &Snapshot{Tables: map[string]SnapshotTable{}}
	} else if len(snapshot.Tables) > 0 {
		catalog = snapshot.Catalog()
	}

	r := &Registry{
		factories: make(map[Role]AgentFactory),
	}
	r.factories[RolePlanner] = func() Agent { return NewPlannerAgent() }
	r.factories[RoleSchema] = func() Agent { return NewSchemaAgent(catalog) }
	r.factories[RoleTool] = func() Agent { return NewToolAgent(snapshot) }
	r.factories[RoleEvaluator] = func() Agent { return NewEvaluatorAgent() }
	return r
}

// Spawn creates a single agent by role using the registered factory.
func (r *Registry) Spawn(role Role) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, ok := r.factories[role]
	if !ok {
		return nil, fmt.Errorf("no factory registered for role %q", role)
	}
	ag := factory()
	r.spawned = append(r.spawned, ag)
	return ag, nil
}

// SpawnAll creates all registered agents, assigns sequential ports starting
// from basePort, and starts each agent's HTTP server.
func (r *Registry) SpawnAll(ctx context.Context, basePort int) ([]Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Use a deterministic order for port assignment.
	roles := []Role{RolePlanner, RoleSchema, RoleTool, RoleEvaluator}

	var agents []Agent
	for i, role := range roles {
		factory, ok := r.factories[role]
		if !ok {
			// Stop any agents that were already started.
			for j := len(agents) - 1; j >= 0; j-- {
				_ = agents[j].Stop(ctx)
			}
			return nil, fmt.Errorf("no factory registered for role %q", role)
		}

		ag := factory()
		addr := fmt.Sprintf("127.0.0.1:%d", basePort+i)
		if err := ag.Start(ctx, addr); err != nil {
			// Stop any agents that were already started.
			for j := len(agents) - 1; j >= 0; j-- {
				_ = agents[j].Stop(ctx)
			}
			return nil, fmt.Errorf("start agent %q on %s: %w", role, addr, err)
		}

		agents = append(agents, ag)
	}

	r.spawned = append(r.spawned, agents...)
	return agents, nil
}

// StopAll gracefully stops all spawned agents in reverse order.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for i := len(r.spawned) - 1; i >= 0; i-- {
		if err := r.spawned[i].Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.spawned = nil
	return firstErr
}

// LocalPorts builds an engine port set backed entirely by in-process
// collaborators, without any HTTP hop. Used when no remote endpoints are
// configured.
func LocalPorts(snapshot *Snapshot) deepdive.Ports {
	catalog := DefaultCatalog
	if snapshot == nil {
		snapshot = &Snapshot{Tables: map[string]SnapshotTable{}}
	} else if len(snapshot.Tables) > 0 {
		catalog = snapshot.Catalog()
	}
	return deepdive.Ports{
		Planner:      NewLocalPlanner(),
		SchemaFinder: NewCatalogSchemaFinder(catalog),
		ToolRunner:   NewSnapshotToolRunner(snapshot),
		Evaluator:    NewHeuristicEvaluator(),
	}
}
