package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/netdive/internal/collab"
	"github.com/dusk-indust/netdive/internal/deepdive"
)

// Compile-time port check.
var _ deepdive.Evaluator = (*HeuristicEvaluator)(nil)

const defaultPassThreshold = 0.5

// HeuristicEvaluator scores fetched rows without a model: empty results
// fail outright, and non-empty results score by how much of the objective's
// vocabulary shows up in the data.
type HeuristicEvaluator struct {
	threshold float64
}

// EvaluatorOption configures a HeuristicEvaluator.
type EvaluatorOption func(*HeuristicEvaluator)

// WithPassThreshold overrides the minimum passing score.
func WithPassThreshold(t float64) EvaluatorOption {
	return func(e *HeuristicEvaluator) {
		e.threshold = t
	}
}

// NewHeuristicEvaluator creates an evaluator with the default threshold.
func NewHeuristicEvaluator(opts ...EvaluatorOption) *HeuristicEvaluator {
	e := &HeuristicEvaluator{threshold: defaultPassThreshold}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate judges rows against the objective.
func (e *HeuristicEvaluator) Evaluate(_ context.Context, objective string, rows []map[string]any) (deepdive.Evaluation, error) {
	if len(rows) == 0 {
		return deepdive.Evaluation{
			Passed:   false,
			Score:    0,
			Feedback: "no rows to evaluate",
		}, nil
	}

	// Non-empty data earns a base score; objective keyword overlap with the
	// row contents earns the rest.
	score := 0.5
	words := tokenize(objective)
	if len(words) > 0 {
		corpus := strings.ToLower(flattenRows(rows))
		hits := 0
		for _, w := range words {
			if strings.Contains(corpus, w) {
				hits++
			}
		}
		score += 0.5 * float64(hits) / float64(len(words))
	}

	ev := deepdive.Evaluation{
		Passed: score >= e.threshold,
		Score:  score,
	}
	if !ev.Passed {
		ev.Feedback = fmt.Sprintf("rows show little overlap with the objective (score %.2f)", score)
	}
	return ev, nil
}

// flattenRows renders row keys and values into one searchable string.
func flattenRows(rows []map[string]any) string {
	var b strings.Builder
	for _, row := range rows {
		for k, v := range row {
			b.WriteString(k)
			b.WriteByte(' ')
			fmt.Fprint(&b, v)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// EvaluatorAgent serves the evaluator skill over the collaborator protocol.
type EvaluatorAgent struct {
	*BaseAgent
	eval *HeuristicEvaluator
}

// NewEvaluatorAgent creates an EvaluatorAgent.
func NewEvaluatorAgent(opts ...EvaluatorOption) *EvaluatorAgent {
	ea := &EvaluatorAgent{
		eval: NewHeuristicEvaluator(opts...),
	}

	card := collab.Card{
		Name:        "evaluator-agent",
		Description: "Scores fetched telemetry against the run objective",
		Version:     version,
		Skills:      []collab.Skill{collab.SkillEvaluator},
	}

	ea.BaseAgent = NewBaseAgent(card, collab.WithEvaluateHandler(
		func(ctx context.Context, req collab.EvaluateRequest) (*collab.EvaluateResponse, error) {
			ev, err := ea.eval.Evaluate(ctx, req.Objective, req.Rows)
			if err != nil {
				return nil, err
			}
			return &collab.EvaluateResponse{
				Passed:   ev.Passed,
				Score:    ev.Score,
				Feedback: ev.Feedback,
			}, nil
		}))

	return ea
}
