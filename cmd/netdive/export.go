package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dusk-indust/netdive/internal/config"
	"github.com/dusk-indust/netdive/internal/export"
)

// runExport writes an archived run to stdout as JSON or a Mermaid diagram.
func runExport(cfg *config.ProjectConfig, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: netdive export <run-id> [json|mermaid]")
	}
	runID := args[0]
	format := "json"
	if len(args) > 1 {
		format = args[1]
	}

	st, err := openStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.InitSchema(ctx); err != nil {
		return err
	}

	state, err := st.LoadRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if state == nil {
		return fmt.Errorf("unknown run %q", runID)
	}

	switch format {
	case "json":
		out, err := json.MarshalIndent(export.ExportRun(state, ""), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	case "mermaid":
		_, err = fmt.Print(export.GenerateMermaid(state))
		return err
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
