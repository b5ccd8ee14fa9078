package deepdive

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// planOutput is the strict schema expected from the planner collaborator:
// {"todos":[{"id":int,"task":str,"deps":[int]}]}.
type planOutput struct {
	Todos []planTodo `json:"todos"`
}

type planTodo struct {
	ID   int    `json:"id"`
	Task string `json:"task"`
	Deps []int  `json:"deps"`
}

// TaskPlanner turns an objective (or a recursion refinement) into a
// dependency-ordered batch of todos appended to the run state. Prior rounds'
// todos are never replaced.
type TaskPlanner struct {
	planner Planner
}

// NewTaskPlanner creates a TaskPlanner backed by the given collaborator.
func NewTaskPlanner(p Planner) *TaskPlanner {
	return &TaskPlanner{planner: p}
}

// PlanRound asks the planner collaborator for a plan and appends the
// resulting todos. Unparseable output degrades to a single todo carrying
// the objective verbatim; that fallback is a recovery, never a failure.
func (tp *TaskPlanner) PlanRound(ctx context.Context, state *State) error {
	prompt := buildPlanningPrompt(state)

	raw, err := tp.planner.Plan(ctx, prompt)
	if err != nil {
		state.Append("planner", fmt.Sprintf("planner collaborator unreachable (%v); using single-task fallback plan", err))
		tp.appendFallback(state)
		return nil
	}

	plan, ok := parsePlan(raw)
	if !ok {
		state.Append("planner", "plan output did not parse; using single-task fallback plan")
		tp.appendFallback(state)
		return nil
	}

	tp.appendPlan(state, plan)
	return nil
}

// appendPlan remaps the plan's local ids onto fresh run-global ids and
// appends the todos in ascending local-id order.
func (tp *TaskPlanner) appendPlan(state *State, plan planOutput) {
	sort.SliceStable(plan.Todos, func(i, j int) bool {
		return plan.Todos[i].ID < plan.Todos[j].ID
	})

	type planned struct {
		src planTodo
		t   *Todo
	}

	localToGlobal := make(map[int]int, len(plan.Todos))
	var created []planned

	for _, pt := range plan.Todos {
		task := strings.TrimSpace(pt.Task)
		if task == "" {
			continue
		}
		t := state.NewTodo(task, nil)
		localToGlobal[pt.ID] = t.ID
		created = append(created, planned{src: pt, t: t})
	}

	if len(created) == 0 {
		state.Append("planner", "plan contained no usable tasks; using single-task fallback plan")
		tp.appendFallback(state)
		return
	}

	// Resolve deps. A dep may name another todo from this plan (local id)
	// or an already-created todo from a prior round (global id). Anything
	// else, including self and forward references, is dropped.
	var dropped int
	for _, p := range created {
		t := p.t
		for _, dep := range p.src.Deps {
			global, ok := localToGlobal[dep]
			if !ok {
				if prior := state.Todo(dep); prior != nil && prior.ID < t.ID {
					global = dep
				} else {
					dropped++
					continue
				}
			}
			if global >= t.ID {
				dropped++
				continue
			}
			t.Deps = append(t.Deps, global)
		}
	}
	if dropped > 0 {
		state.Append("planner", fmt.Sprintf("dropped %d invalid dependency reference(s) from the plan", dropped))
	}

	state.Append("planner", fmt.Sprintf("planned %d task(s) for round %d", len(created), state.Round))
}

// appendFallback creates the single-todo fallback plan.
func (tp *TaskPlanner) appendFallback(state *State) {
	task := state.Objective
	if state.Refinement != "" {
		task = state.Refinement
	}
	state.NewTodo(task, nil)
}

// buildPlanningPrompt assembles the collaborator prompt. On recursion
// rounds the refinement instruction and prior results precede the contract.
func buildPlanningPrompt(state *State) string {
	var b strings.Builder

	b.WriteString("You are planning a network diagnostic investigation.\n\n")
	fmt.Fprintf(&b, "## Objective\n%s\n\n", state.Objective)

	if state.Refinement != "" {
		fmt.Fprintf(&b, "## Refinement\n%s\n\n", state.Refinement)
	}

	if len(state.CompletedResults) > 0 {
		b.WriteString("## Findings so far\n")
		ids := make([]int, 0, len(state.CompletedResults))
		for id := range state.CompletedResults {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			fmt.Fprintf(&b, "- task %d: %s\n", id, state.CompletedResults[id])
		}
		b.WriteString("\n")
	}

	b.WriteString("Respond with JSON only, in this exact shape:\n" +
		`{"todos":[{"id":1,"task":"...","deps":[]}]}` + "\n" +
		"Each task must be answerable from network telemetry tables. " +
		"deps lists ids of tasks that must complete first.")

	return b.String()
}

// parsePlan extracts and decodes the plan JSON from raw model output.
// It tolerates surrounding prose and markdown fences.
func parsePlan(raw string) (planOutput, bool) {
	var plan planOutput

	cleaned := stripFences(raw)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return plan, false
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &plan); err != nil {
		return plan, false
	}
	if len(plan.Todos) == 0 {
		return plan, false
	}
	return plan, true
}

// stripFences removes markdown code fences from model output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
