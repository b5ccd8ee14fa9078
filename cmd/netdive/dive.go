package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dusk-indust/netdive/internal/agent"
	"github.com/dusk-indust/netdive/internal/collab"
	"github.com/dusk-indust/netdive/internal/config"
	"github.com/dusk-indust/netdive/internal/deepdive"
	"github.com/dusk-indust/netdive/internal/store"
)

// runDive executes one deep dive from the terminal.
func runDive(cfg *config.ProjectConfig, flags cliFlags, objective string) error {
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

	if flags.AutoApprove {
		ports.Approver = deepdive.AutoApprover{}
	} else {
		ports.Approver = consoleApprover{}
	}

	engine := deepdive.NewEngine(engineConfig(cfg), ports)
	defer engine.Close()

	if cfg.Verbose {
		go func() {
			for ev := range engine.Progress() {
				fmt.Fprintln(os.Stderr, deepdive.FormatProgress(ev))
			}
		}()
	}

	result, err := engine.Run(ctx, objective)
	if err != nil {
		return err
	}

	fmt.Println(result.Report)
	return nil
}

// engineConfig translates project config into engine tunables.
func engineConfig(cfg *config.ProjectConfig) deepdive.Config {
	dcfg := deepdive.DefaultConfig()
	if cfg.MaxDepth > 0 {
		dcfg.MaxDepth = cfg.MaxDepth
	}
	if cfg.ParallelBatchSize > 0 {
		dcfg.ParallelBatchSize = cfg.ParallelBatchSize
	}
	if cfg.FailureCap > 0 {
		dcfg.FailureCap = cfg.FailureCap
	}
	if cfg.EvalPolicy == string(deepdive.EvalStrict) {
		dcfg.EvalPolicy = deepdive.EvalStrict
	}
	dcfg.Verbose = cfg.Verbose
	return dcfg
}

// buildPorts wires the collaborator ports: configured endpoints first, then
// probed local agents, then in-process fallbacks for whatever is left.
func buildPorts(ctx context.Context, cfg *config.ProjectConfig) (deepdive.Ports, error) {
	var snapshot *agent.Snapshot
	if cfg.SnapshotPath != "" {
		var err error
		snapshot, err = agent.LoadSnapshot(cfg.SnapshotPath)
		if err != nil {
			return deepdive.Ports{}, err
		}
	}

	ports := agent.LocalPorts(snapshot)

	endpoints := cfg.AgentEndpoints
	client := collab.NewHTTPClient()
	if len(endpoints) == 0 {
		found := agent.NewProber(client).Probe(ctx)
		if len(found) > 0 {
			endpoints = make(map[string]string, len(found))
			for skill, ep := range found {
				endpoints[string(skill)] = ep
			}
		}
	}

	for skill, ep := range endpoints {
		switch collab.Skill(skill) {
		case collab.SkillPlanner:
			ports.Planner = &collab.RemotePlanner{Client: client, Endpoint: ep}
		case collab.SkillSchema:
			ports.SchemaFinder = &collab.RemoteSchemaFinder{Client: client, Endpoint: ep}
		case collab.SkillTool:
			ports.ToolRunner = &collab.RemoteToolRunner{Client: client, Endpoint: ep}
		case collab.SkillEvaluator:
			ports.Evaluator = &collab.RemoteEvaluator{Client: client, Endpoint: ep}
		default:
			log.Printf("ignoring endpoint for unknown skill %q", skill)
		}
	}

	return ports, nil
}

// consoleApprover prompts on the terminal when a plan parks at the gate.
type consoleApprover struct{}

func (consoleApprover) Decide(ctx context.Context, runID string, plan deepdive.ExecutionPlan, todos []*deepdive.Todo) (deepdive.Decision, error) {
	fmt.Printf("\nRun %s needs approval before executing:\n", runID)
	for _, t := range todos {
		line := fmt.Sprintf("  [%d] %-11s %s", t.ID, t.Feasibility, t.Task)
		if rec, ok := plan.Recommendations[t.ID]; ok {
			line += " (" + rec + ")"
		}
		fmt.Println(line)
	}
	fmt.Print("Proceed? [y/N] ")

	answerCh := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			answerCh <- strings.TrimSpace(strings.ToLower(scanner.Text()))
			return
		}
		answerCh <- ""
	}()

	select {
	case answer := <-answerCh:
		if answer == "y" || answer == "yes" {
			return deepdive.Decision{Kind: deepdive.DecisionApprove}, nil
		}
		return deepdive.Decision{Kind: deepdive.DecisionReject, Note: "declined at terminal"}, nil
	case <-ctx.Done():
		return deepdive.Decision{}, ctx.Err()
	}
}
