package agent

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/netdive/internal/collab"
	"github.com/dusk-indust/netdive/internal/deepdive"
)

// Compile-time port check.
var _ deepdive.ToolRunner = (*SnapshotToolRunner)(nil)

// Snapshot is a telemetry snapshot: tables with schemas and captured rows.
// It stands in for the live poller in single-binary runs and tests.
type Snapshot struct {
	Tables map[string]SnapshotTable `yaml:"tables"`
}

// SnapshotTable is one table of a snapshot.
type SnapshotTable struct {
	Description string           `yaml:"description,omitempty"`
	Fields      []string         `yaml:"fields"`
	Rows        []map[string]any `yaml:"rows"`
}

// LoadSnapshot reads a snapshot YAML file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agent: read snapshot %s: %w", path, err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("agent: parse snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// Catalog derives the schema catalog for the snapshot's tables, suitable
// for a CatalogSchemaFinder.
func (s *Snapshot) Catalog() map[string]deepdive.TableSchema {
	out := make(map[string]deepdive.TableSchema, len(s.Tables))
	for name, t := range s.Tables {
		out[name] = deepdive.TableSchema{
			Fields:      t.Fields,
			Description: t.Description,
		}
	}
	return out
}

// SnapshotToolRunner is the tool port served from a snapshot. Unknown
// tables report SCHEMA_NOT_FOUND; empty matches report NO_DATA_FOUND.
type SnapshotToolRunner struct {
	snapshot *Snapshot
}

// NewSnapshotToolRunner creates a runner over the given snapshot.
func NewSnapshotToolRunner(snapshot *Snapshot) *SnapshotToolRunner {
	return &SnapshotToolRunner{snapshot: snapshot}
}

// Execute filters the table's rows. Filter keys are matched against row
// fields by string equality; the advisory "context" key carries task text
// and never filters.
func (r *SnapshotToolRunner) Execute(_ context.Context, req deepdive.ToolRequest) (deepdive.ToolResult, error) {
	table, ok := r.snapshot.Tables[req.Table]
	if !ok {
		return deepdive.ToolResult{Status: deepdive.ToolStatusSchemaNotFound}, nil
	}

	var rows []map[string]any
	for _, row := range table.Rows {
		if rowMatches(row, req.Filters) {
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return deepdive.ToolResult{
			Status:  deepdive.ToolStatusNoData,
			Columns: table.Fields,
		}, nil
	}

	return deepdive.ToolResult{
		Status:  deepdive.ToolStatusOK,
		Columns: table.Fields,
		Data:    rows,
	}, nil
}

// rowMatches applies exact-match filters to one row.
func rowMatches(row map[string]any, filters map[string]string) bool {
	for key, want := range filters {
		if key == "context" {
			continue
		}
		got, ok := row[key]
		if !ok || fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}

// ToolAgent serves the tool skill over the collaborator protocol.
type ToolAgent struct {
	*BaseAgent
	runner *SnapshotToolRunner
}

// NewToolAgent creates a ToolAgent over the given snapshot.
func NewToolAgent(snapshot *Snapshot) *ToolAgent {
	ta := &ToolAgent{
		runner: NewSnapshotToolRunner(snapshot),
	}

	card := collab.Card{
		Name:        "tool-agent",
		Description: "Executes table queries against the telemetry snapshot",
		Version:     version,
		Skills:      []collab.Skill{collab.SkillTool},
	}

	ta.BaseAgent = NewBaseAgent(card, collab.WithExecuteHandler(
		func(ctx context.Context, req collab.ExecuteRequest) (*collab.ExecuteResponse, error) {
			res, err := ta.runner.Execute(ctx, deepdive.ToolRequest{
				Table:   req.Table,
				Filters: req.Filters,
			})
			if err != nil {
				return nil, err
			}
			return &collab.ExecuteResponse{
				Status:  res.Status,
				Columns: res.Columns,
				Data:    res.Data,
			}, nil
		}))

	return ta
}
