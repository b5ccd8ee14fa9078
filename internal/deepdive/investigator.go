package deepdive

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// TableHint maps a task keyword to the telemetry table that usually answers
// it. Hints are checked in order; the first keyword contained in the task
// text wins.
type TableHint struct {
	Keyword string
	Table   string
}

// DefaultTableHints is the built-in keyword policy over the SuzieQ-style
// table namespace. It is a starting point, not a contract: callers can
// replace it wholesale with WithTableHints.
var DefaultTableHints = []TableHint{
	{Keyword: "interface", Table: "interfaces"},
	{Keyword: "bgp", Table: "bgp"},
	{Keyword: "ospf", Table: "ospf"},
	{Keyword: "route", Table: "routes"},
	{Keyword: "routing", Table: "routes"},
	{Keyword: "vlan", Table: "vlan"},
	{Keyword: "mac", Table: "macs"},
	{Keyword: "lldp", Table: "lldp"},
	{Keyword: "evpn", Table: "evpnVni"},
	{Keyword: "vni", Table: "evpnVni"},
	{Keyword: "arp", Table: "arpnd"},
	{Keyword: "neighbor discovery", Table: "arpnd"},
	{Keyword: "mlag", Table: "mlag"},
	{Keyword: "version", Table: "device"},
	{Keyword: "device", Table: "device"},
	{Keyword: "uptime", Table: "device"},
}

// SchemaInvestigator classifies pending todos against the discovered data
// schema and builds the round's execution plan.
type SchemaInvestigator struct {
	finder SchemaFinder
	hints  []TableHint
}

// InvestigatorOption configures a SchemaInvestigator during construction.
type InvestigatorOption func(*SchemaInvestigator)

// WithTableHints replaces the keyword→table hint policy.
func WithTableHints(hints []TableHint) InvestigatorOption {
	return func(si *SchemaInvestigator) {
		si.hints = hints
	}
}

// NewSchemaInvestigator creates a SchemaInvestigator with the default hint
// policy.
func NewSchemaInvestigator(finder SchemaFinder, opts ...InvestigatorOption) *SchemaInvestigator {
	si := &SchemaInvestigator{
		finder: finder,
		hints:  DefaultTableHints,
	}
	for _, opt := range opts {
		opt(si)
	}
	return si
}

// hintTable returns the first hint whose keyword appears in the task text.
func (si *SchemaInvestigator) hintTable(task string) string {
	lower := strings.ToLower(task)
	for _, h := range si.hints {
		if strings.Contains(lower, h.Keyword) {
			return h.Table
		}
	}
	return ""
}

// Investigate classifies every pending todo that lacks a feasibility and
// returns the execution plan over all currently pending todos. Discovery
// errors degrade to an empty discovery with a note; they never abort the
// round.
func (si *SchemaInvestigator) Investigate(ctx context.Context, state *State) (*ExecutionPlan, error) {
	for _, t := range state.Todos {
		if t.Status != StatusPending || t.Feasibility != FeasibilityUnset {
			continue
		}
		si.classify(ctx, t)
	}

	plan := &ExecutionPlan{
		Recommendations: make(map[int]string),
	}
	for _, t := range state.Todos {
		if t.Status != StatusPending {
			continue
		}
		switch t.Feasibility {
		case Feasible:
			plan.FeasibleTasks = append(plan.FeasibleTasks, t.ID)
			plan.Recommendations[t.ID] = fmt.Sprintf("query table %q", t.RecommendedTable)
		case Uncertain:
			plan.UncertainTasks = append(plan.UncertainTasks, t.ID)
			rec := "confirm the data source for this task"
			if t.RecommendedTable != "" {
				rec = fmt.Sprintf("confirm data source; closest table: %q", t.RecommendedTable)
			}
			plan.Recommendations[t.ID] = rec
		case Infeasible:
			plan.InfeasibleTasks = append(plan.InfeasibleTasks, t.ID)
			plan.Recommendations[t.ID] = "infeasible via this data source; consider NETCONF/CLI collection"
		}
	}

	plan.UserApprovalRequired = len(plan.UncertainTasks) > 0 || len(plan.InfeasibleTasks) > 0

	state.Plan = plan
	state.Append("investigator", fmt.Sprintf(
		"classified plan: %d feasible, %d uncertain, %d infeasible",
		len(plan.FeasibleTasks), len(plan.UncertainTasks), len(plan.InfeasibleTasks)))

	return plan, nil
}

// classify writes feasibility, recommended table, and schema notes on one todo.
func (si *SchemaInvestigator) classify(ctx context.Context, t *Todo) {
	candidate := si.hintTable(t.Task)

	discovered, err := si.finder.Discover(ctx, t.Task)
	if err != nil {
		discovered = nil
		t.SchemaNotes = fmt.Sprintf("schema discovery error: %v", err)
	}

	if schema, ok := discovered[candidate]; candidate != "" && ok {
		t.Feasibility = Feasible
		t.RecommendedTable = candidate
		t.SchemaNotes = fmt.Sprintf("table %q confirmed with %d field(s)", candidate, len(schema.Fields))
		return
	}

	if candidate == "" && len(discovered) == 0 {
		t.Feasibility = Infeasible
		if t.SchemaNotes == "" {
			t.SchemaNotes = "no table hint and schema discovery returned nothing relevant"
		}
		return
	}

	// Ambiguous signal: either the hint could not be confirmed, or tables
	// were discovered without a hint to match them against.
	t.Feasibility = Uncertain
	if candidate != "" {
		t.RecommendedTable = candidate
		t.SchemaNotes = fmt.Sprintf("table hint %q not confirmed by discovery", candidate)
		return
	}
	names := make([]string, 0, len(discovered))
	for name := range discovered {
		names = append(names, name)
	}
	sort.Strings(names)
	t.RecommendedTable = names[0]
	t.SchemaNotes = fmt.Sprintf("no table hint; discovery suggested %s", strings.Join(names, ", "))
}
