package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/netdive/internal/agent"
	"github.com/dusk-indust/netdive/internal/config"
)

// runAgents spawns collaborator agents on sequential local ports and blocks
// until interrupted. With no arguments all four specialists start; naming
// roles (planner, schema, tool, evaluator) starts just those.
func runAgents(cfg *config.ProjectConfig, flags cliFlags, args []string) error {
	var snapshot *agent.Snapshot
	if cfg.SnapshotPath != "" {
		var err error
		snapshot, err = agent.LoadSnapshot(cfg.SnapshotPath)
		if err != nil {
			return err
		}
	}

	basePort := flags.BasePort
	if cfg.AgentBasePort > 0 && basePort == 9100 {
		basePort = cfg.AgentBasePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := agent.NewRegistry(snapshot)

	var agents []agent.Agent
	if len(args) == 0 {
		var err error
		agents, err = registry.SpawnAll(ctx, basePort)
		if err != nil {
			return err
		}
	} else {
		for i, name := range args {
			ag, spawnErr := registry.Spawn(agent.Role(name))
			if spawnErr != nil {
				_ = registry.StopAll(context.Background())
				return spawnErr
			}
			addr := fmt.Sprintf("127.0.0.1:%d", basePort+i)
			if startErr := ag.Start(ctx, addr); startErr != nil {
				_ = registry.StopAll(context.Background())
				return fmt.Errorf("start agent %q on %s: %w", name, addr, startErr)
			}
			agents = append(agents, ag)
		}
	}

	for i, ag := range agents {
		card := ag.Card()
		fmt.Printf("agent %q serving %v on 127.0.0.1:%d\n", card.Name, card.Skills, basePort+i)
	}
	fmt.Println("press Ctrl-C to stop")

	<-ctx.Done()
	return registry.StopAll(context.Background())
}
