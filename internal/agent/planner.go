package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dusk-indust/netdive/internal/collab"
	"github.com/dusk-indust/netdive/internal/deepdive"
)

// Compile-time port check.
var _ deepdive.Planner = (*LocalPlanner)(nil)

// ModelFunc calls a language model with a prompt and returns its raw text.
type ModelFunc func(ctx context.Context, prompt string) (string, error)

// LocalPlanner is the planner port served in-process. With a ModelFunc it
// proxies the model; without one it degrades to a deterministic clause
// splitter so single-binary runs still produce a usable plan.
type LocalPlanner struct {
	model ModelFunc
}

// PlannerOption configures a LocalPlanner.
type PlannerOption func(*LocalPlanner)

// WithModel injects the language model call.
func WithModel(fn ModelFunc) PlannerOption {
	return func(p *LocalPlanner) {
		p.model = fn
	}
}

// NewLocalPlanner creates a LocalPlanner.
func NewLocalPlanner(opts ...PlannerOption) *LocalPlanner {
	p := &LocalPlanner{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan returns raw plan text for the prompt.
func (p *LocalPlanner) Plan(ctx context.Context, prompt string) (string, error) {
	if p.model != nil {
		return p.model(ctx, prompt)
	}
	return heuristicPlan(prompt), nil
}

// planJSON mirrors the plan contract the engine parses.
type planJSON struct {
	Todos []planTodoJSON `json:"todos"`
}

type planTodoJSON struct {
	ID   int    `json:"id"`
	Task string `json:"task"`
	Deps []int  `json:"deps"`
}

// heuristicPlan builds a plan without a model: refinement bullets become one
// follow-up task each; otherwise the objective is split into sequential
// steps on "then"/";" and parallel sub-tasks on "and".
func heuristicPlan(prompt string) string {
	plan := planJSON{}

	if ref := promptSection(prompt, "## Refinement"); ref != "" {
		id := 1
		for _, line := range strings.Split(ref, "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
			if line == "" || !strings.HasPrefix(line, "task ") {
				continue
			}
			plan.Todos = append(plan.Todos, planTodoJSON{
				ID:   id,
				Task: "narrow down root cause: " + line,
				Deps: []int{},
			})
			id++
		}
	}

	if len(plan.Todos) == 0 {
		objective := promptSection(prompt, "## Objective")
		if objective == "" {
			objective = strings.TrimSpace(prompt)
		}

		id := 1
		var prevStep []int
		for _, step := range splitAny(objective, []string{" then ", ";"}) {
			var stepIDs []int
			for _, task := range splitAny(step, []string{" and "}) {
				task = strings.TrimSpace(task)
				if task == "" {
					continue
				}
				plan.Todos = append(plan.Todos, planTodoJSON{
					ID:   id,
					Task: task,
					Deps: append([]int{}, prevStep...),
				})
				stepIDs = append(stepIDs, id)
				id++
			}
			if len(stepIDs) > 0 {
				prevStep = stepIDs
			}
		}
	}

	out, _ := json.Marshal(plan)
	return string(out)
}

// promptSection extracts the body of a "## Heading" section from a prompt.
func promptSection(prompt, heading string) string {
	idx := strings.Index(prompt, heading)
	if idx < 0 {
		return ""
	}
	body := prompt[idx+len(heading):]
	if end := strings.Index(body, "\n## "); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// splitAny splits s on every separator in seps.
func splitAny(s string, seps []string) []string {
	parts := []string{s}
	for _, sep := range seps {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	return parts
}

// PlannerAgent serves the planner skill over the collaborator protocol.
type PlannerAgent struct {
	*BaseAgent
	planner *LocalPlanner
}

// NewPlannerAgent creates a PlannerAgent.
func NewPlannerAgent(opts ...PlannerOption) *PlannerAgent {
	pa := &PlannerAgent{
		planner: NewLocalPlanner(opts...),
	}

	card := collab.Card{
		Name:        "planner-agent",
		Description: "Decomposes a diagnostic objective into a dependency-ordered task plan",
		Version:     version,
		Skills:      []collab.Skill{collab.SkillPlanner},
	}

	pa.BaseAgent = NewBaseAgent(card, collab.WithPlanHandler(
		func(ctx context.Context, req collab.PlanRequest) (*collab.PlanResponse, error) {
			out, err := pa.planner.Plan(ctx, req.Prompt)
			if err != nil {
				return nil, err
			}
			return &collab.PlanResponse{Output: out}, nil
		}))

	return pa
}
