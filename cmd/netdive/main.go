package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dusk-indust/netdive/internal/config"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ConfigDir   string
	Snapshot    string
	StorePath   string
	Agents      string
	BasePort    int
	MaxDepth    int
	BatchSize   int
	FailureCap  int
	StrictEval  bool
	AutoApprove bool
	Verbose     bool
	ServeMCP    bool
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("netdive", flag.ContinueOnError)
	fs.StringVar(&flags.ConfigDir, "config-dir", ".", "directory containing netdive.yml")
	fs.StringVar(&flags.Snapshot, "snapshot", "", "path to a telemetry snapshot YAML file")
	fs.StringVar(&flags.StorePath, "store", "", "path to the run archive database")
	fs.StringVar(&flags.Agents, "agents", "", "comma-separated collaborator endpoint URLs")
	fs.IntVar(&flags.BasePort, "base-port", 9100, "first port for spawned collaborator agents")
	fs.IntVar(&flags.MaxDepth, "max-depth", 0, "maximum recursion depth (0 = config or default)")
	fs.IntVar(&flags.BatchSize, "batch-size", 0, "parallel execution batch size (0 = config or default)")
	fs.IntVar(&flags.FailureCap, "failure-cap", 0, "max failed tasks fed into one refinement (0 = config or default)")
	fs.BoolVar(&flags.StrictEval, "strict-eval", false, "fail tasks when the evaluator is unavailable")
	fs.BoolVar(&flags.AutoApprove, "auto-approve", false, "approve gated plans without prompting")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server for AI operator integration")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, flags)

	if flags.ServeMCP {
		return runServeMCP(cfg, flags)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return fmt.Errorf("expected an objective or a command (agents, status, export)")
	}

	switch rest[0] {
	case "agents":
		return runAgents(cfg, flags, rest[1:])
	case "status":
		return runStatus(cfg, rest[1:])
	case "export":
		return runExport(cfg, rest[1:])
	default:
		return runDive(cfg, flags, strings.Join(rest, " "))
	}
}

// applyFlags overlays explicit flag values onto the project config.
func applyFlags(cfg *config.ProjectConfig, flags cliFlags) {
	if flags.Snapshot != "" {
		cfg.SnapshotPath = flags.Snapshot
	}
	if flags.StorePath != "" {
		cfg.StorePath = flags.StorePath
	}
	if flags.MaxDepth > 0 {
		cfg.MaxDepth = flags.MaxDepth
	}
	if flags.BatchSize > 0 {
		cfg.ParallelBatchSize = flags.BatchSize
	}
	if flags.FailureCap > 0 {
		cfg.FailureCap = flags.FailureCap
	}
	if flags.StrictEval {
		cfg.EvalPolicy = "strict"
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
	if flags.Agents != "" {
		// Positional endpoint list: planner, schema, tool, evaluator.
		skills := []string{"planner", "schema", "tool", "evaluator"}
		if cfg.AgentEndpoints == nil {
			cfg.AgentEndpoints = make(map[string]string)
		}
		for i, ep := range strings.Split(flags.Agents, ",") {
			if i >= len(skills) {
				break
			}
			if ep = strings.TrimSpace(ep); ep != "" {
				cfg.AgentEndpoints[skills[i]] = ep
			}
		}
	}
}
