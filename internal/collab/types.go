package collab

import (
	"github.com/dusk-indust/netdive/internal/deepdive"
)

// Skill identifies a collaborator specialty.
type Skill string

const (
	SkillPlanner   Skill = "planner"
	SkillSchema    Skill = "schema"
	SkillTool      Skill = "tool"
	SkillEvaluator Skill = "evaluator"
)

// Card is the self-describing manifest a collaborator serves at CardPath.
type Card struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Version     string  `json:"version"`
	Skills      []Skill `json:"skills"`
}

// Serves reports whether the card advertises the given skill.
func (c Card) Serves(skill Skill) bool {
	for _, s := range c.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// --- Request / Response types, one pair per method ---

// PlanRequest carries the planning prompt to a planner collaborator.
type PlanRequest struct {
	Prompt string `json:"prompt"`
}

// PlanResponse returns the model's raw plan text. Parsing is the engine's
// concern, not the wire's.
type PlanResponse struct {
	Output string `json:"output"`
}

// DiscoverRequest queries the schema collaborator with free text.
type DiscoverRequest struct {
	Query string `json:"query"`
}

// DiscoverResponse maps table name → schema. An empty map is a valid
// "no match" result.
type DiscoverResponse struct {
	Tables map[string]deepdive.TableSchema `json:"tables"`
}

// ExecuteRequest asks the tool collaborator to run a table query.
type ExecuteRequest struct {
	Table   string            `json:"table"`
	Filters map[string]string `json:"filters,omitempty"`
}

// ExecuteResponse is the structured tool outcome.
type ExecuteResponse struct {
	Status  string           `json:"status"`
	Columns []string         `json:"columns,omitempty"`
	Data    []map[string]any `json:"data,omitempty"`
}

// EvaluateRequest asks the evaluator to judge rows against the objective.
type EvaluateRequest struct {
	Objective string           `json:"objective"`
	Rows      []map[string]any `json:"rows"`
}

// EvaluateResponse is the evaluator's verdict.
type EvaluateResponse struct {
	Passed   bool    `json:"passed"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback,omitempty"`
}
