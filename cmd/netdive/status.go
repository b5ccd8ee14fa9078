package main

import (
	"context"
	"fmt"

	"github.com/dusk-indust/netdive/internal/config"
	"github.com/dusk-indust/netdive/internal/deepdive"
	"github.com/dusk-indust/netdive/internal/store"
)

// runStatus prints archived run summaries, or the todo detail of one run.
func runStatus(cfg *config.ProjectConfig, args []string) error {
	st, err := openStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.InitSchema(ctx); err != nil {
		return err
	}

	if len(args) > 0 {
		return printRunDetail(ctx, st, args[0])
	}
	return printRunList(ctx, st)
}

func printRunList(ctx context.Context, st store.Store) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs found.")
		fmt.Println("Run 'netdive <objective>' to start an investigation.")
		return nil
	}

	for _, r := range runs {
		marker := " "
		if r.Aborted {
			marker = "!"
		}
		fmt.Printf("%s %-36s %-18s rounds=%d todos=%d  %s\n",
			marker, r.RunID, r.Phase, r.Rounds, r.TodoCount, r.Objective)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\n%d run(s), %d todo(s): %d completed, %d failed\n",
		stats.RunCount, stats.TodoCount, stats.CompletedTodos, stats.FailedTodos)
	return nil
}

func printRunDetail(ctx context.Context, st store.Store, runID string) error {
	state, err := st.LoadRun(ctx, runID)
	if err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("unknown run %q", runID)
	}

	fmt.Printf("Run: %s\n", state.RunID)
	fmt.Printf("Objective: %s\n", state.Objective)
	fmt.Printf("Phase: %s  round=%d depth=%d\n", state.Phase, state.Round, state.RecursionDepth)
	if state.Aborted {
		fmt.Printf("Aborted: %s\n", state.AbortReason)
	}
	fmt.Println()

	for _, t := range state.Todos {
		fmt.Printf("  [%d] %-11s r%d  %s\n", t.ID, t.Status, t.Round, t.Task)
		switch t.Status {
		case deepdive.StatusCompleted:
			if t.Result != "" {
				fmt.Printf("       -> %s\n", t.Result)
			}
		case deepdive.StatusFailed:
			fmt.Printf("       !! %s\n", t.FailureReason)
		}
	}
	return nil
}
