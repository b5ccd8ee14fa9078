//go:build cgo

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/dusk-indust/netdive/internal/deepdive"
)

// KuzuStore implements the Store interface using KuzuDB as the archive
// backend. It requires CGO because the go-kuzu driver wraps KuzuDB's C
// library. Each run node carries the full state as JSON for checkpoint
// resume; the Todo graph exists for queries and stats.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path. KuzuDB creates the leaf directory itself for new
// databases. This makes run archives survive across sessions.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open file database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Run(
		id STRING,
		objective STRING,
		phase STRING,
		rounds INT64,
		aborted BOOLEAN,
		state_json STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Todo(
		id STRING,
		todo_id INT64,
		task STRING,
		status STRING,
		feasibility STRING,
		table_name STRING,
		round INT64,
		failure_reason STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS PART_OF(FROM Todo TO Run)`,
	`CREATE REL TABLE IF NOT EXISTS DEPENDS_ON(FROM Todo TO Todo)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// SaveRun replaces any previous save for the run, then inserts the run
// node, one Todo node per task, and the PART_OF / DEPENDS_ON edges.
func (s *KuzuStore) SaveRun(_ context.Context, state *deepdive.State) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("kuzu: marshal state: %w", err)
	}

	if err := s.deleteRun(state.RunID); err != nil {
		return err
	}

	err = s.exec(
		`CREATE (r:Run {
			id: $id,
			objective: $objective,
			phase: $phase,
			rounds: $rounds,
			aborted: $aborted,
			state_json: $state
		})`,
		map[string]any{
			"id":        state.RunID,
			"objective": state.Objective,
			"phase":     string(state.Phase),
			"rounds":    int64(state.Round + 1),
			"aborted":   state.Aborted,
			"state":     string(stateJSON),
		},
	)
	if err != nil {
		return err
	}

	for _, t := range state.Todos {
		err := s.exec(
			`CREATE (t:Todo {
				id: $id,
				todo_id: $tid,
				task: $task,
				status: $status,
				feasibility: $feas,
				table_name: $tbl,
				round: $round,
				failure_reason: $reason
			})`,
			map[string]any{
				"id":     todoNodeID(state.RunID, t.ID),
				"tid":    int64(t.ID),
				"task":   t.Task,
				"status": string(t.Status),
				"feas":   string(t.Feasibility),
				"tbl":    t.RecommendedTable,
				"round":  int64(t.Round),
				"reason": t.FailureReason,
			},
		)
		if err != nil {
			return err
		}
		err = s.exec(
			`MATCH (t:Todo {id: $tid}), (r:Run {id: $rid})
			 CREATE (t)-[:PART_OF]->(r)`,
			map[string]any{
				"tid": todoNodeID(state.RunID, t.ID),
				"rid": state.RunID,
			},
		)
		if err != nil {
			return err
		}
	}

	// Dependency edges after all Todo nodes exist.
	for _, t := range state.Todos {
		for _, dep := range t.Deps {
			err := s.exec(
				`MATCH (a:Todo {id: $src}), (b:Todo {id: $dst})
				 CREATE (a)-[:DEPENDS_ON]->(b)`,
				map[string]any{
					"src": todoNodeID(state.RunID, t.ID),
					"dst": todoNodeID(state.RunID, dep),
				},
			)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// deleteRun removes a run and its todos so SaveRun acts as an upsert.
func (s *KuzuStore) deleteRun(runID string) error {
	err := s.exec(
		`MATCH (t:Todo)-[:PART_OF]->(r:Run {id: $id}) DETACH DELETE t`,
		map[string]any{"id": runID},
	)
	if err != nil {
		return err
	}
	return s.exec(
		`MATCH (r:Run {id: $id}) DETACH DELETE r`,
		map[string]any{"id": runID},
	)
}

// ---------- Read operations ----------

// LoadRun rehydrates the saved state from the run node's JSON payload,
// or returns nil if the run is unknown.
func (s *KuzuStore) LoadRun(_ context.Context, runID string) (*deepdive.State, error) {
	rows, err := s.query(
		"MATCH (r:Run {id: $id}) RETURN r.state_json",
		map[string]any{"id": runID},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var state deepdive.State
	if err := json.Unmarshal([]byte(toString(rows[0][0])), &state); err != nil {
		return nil, fmt.Errorf("kuzu: unmarshal state: %w", err)
	}
	return &state, nil
}

// ListRuns returns summaries sorted by run ID.
func (s *KuzuStore) ListRuns(_ context.Context) ([]RunSummary, error) {
	rows, err := s.query(
		"MATCH (r:Run) RETURN r.id, r.objective, r.phase, r.rounds, r.aborted",
		nil,
	)
	if err != nil {
		return nil, err
	}

	out := make([]RunSummary, 0, len(rows))
	for _, r := range rows {
		id := toString(r[0])
		todoCount, err := s.countRunTodos(id)
		if err != nil {
			return nil, err
		}
		out = append(out, RunSummary{
			RunID:     id,
			Objective: toString(r[1]),
			Phase:     toString(r[2]),
			Rounds:    toInt(r[3]),
			TodoCount: todoCount,
			Aborted:   toBool(r[4]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunID < out[j].RunID })
	return out, nil
}

// Stats returns counts across the archive.
func (s *KuzuStore) Stats(_ context.Context) (*ArchiveStats, error) {
	runs, err := s.countTable("Run")
	if err != nil {
		return nil, err
	}
	todos, err := s.countTable("Todo")
	if err != nil {
		return nil, err
	}
	completed, err := s.countTodosByStatus(string(deepdive.StatusCompleted))
	if err != nil {
		return nil, err
	}
	failed, err := s.countTodosByStatus(string(deepdive.StatusFailed))
	if err != nil {
		return nil, err
	}
	deps, err := s.countRel("DEPENDS_ON")
	if err != nil {
		return nil, err
	}
	return &ArchiveStats{
		RunCount:       runs,
		TodoCount:      todos,
		CompletedTodos: completed,
		FailedTodos:    failed,
		DepCount:       deps,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table.
func (s *KuzuStore) countTable(table string) (int, error) {
	// Table name is a fixed internal constant, not user input.
	cypher := fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table)
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// countRel returns the number of edges in a relationship table.
func (s *KuzuStore) countRel(table string) (int, error) {
	cypher := fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", table)
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// countRunTodos counts the todos attached to one run.
func (s *KuzuStore) countRunTodos(runID string) (int, error) {
	rows, err := s.query(
		"MATCH (t:Todo)-[:PART_OF]->(r:Run {id: $id}) RETURN count(t)",
		map[string]any{"id": runID},
	)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// countTodosByStatus counts todos across all runs with the given status.
func (s *KuzuStore) countTodosByStatus(status string) (int, error) {
	rows, err := s.query(
		"MATCH (t:Todo {status: $status}) RETURN count(t)",
		map[string]any{"status": status},
	)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// todoNodeID produces a deterministic identifier for a todo: "runID:id".
func todoNodeID(runID string, id int) string {
	return fmt.Sprintf("%s:%d", runID, id)
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
