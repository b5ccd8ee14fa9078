package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/netdive/internal/config"
	"github.com/dusk-indust/netdive/internal/deepdive"
	"github.com/dusk-indust/netdive/internal/mcptools"
	"github.com/dusk-indust/netdive/internal/store"
)

// runServeMCP runs the binary as an MCP server on stdio. Approval gates are
// resolved through the resolve_approval tool instead of the terminal.
func runServeMCP(cfg *config.ProjectConfig, flags cliFlags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ports, err := buildPorts(ctx, cfg)
	if err != nil {
		return err
	}

	st, err := openStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.InitSchema(ctx); err != nil {
		return err
	}
	ports.Checkpointer = store.Checkpoint{S: st}

	gate := deepdive.NewPendingGate()
	if flags.AutoApprove {
		ports.Approver = deepdive.AutoApprover{}
	} else {
		ports.Approver = gate
	}

	engine := deepdive.NewEngine(engineConfig(cfg), ports)
	defer engine.Close()

	svc := mcptools.NewDiveService(engine, gate)
	server := mcptools.NewDiveMCPServer(svc)
	return mcptools.RunDiveMCPServerStdio(ctx, server)
}
