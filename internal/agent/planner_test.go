package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodePlan parses the planner's JSON output for assertions.
func decodePlan(t *testing.T, raw string) planJSON {
	t.Helper()

	var plan planJSON
	require.NoError(t, json.Unmarshal([]byte(raw), &plan))
	return plan
}

func TestLocalPlanner_ModelProxied(t *testing.T) {
	p := NewLocalPlanner(WithModel(func(_ context.Context, prompt string) (string, error) {
		return "model said: " + prompt, nil
	}))

	out, err := p.Plan(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "model said: hello", out)
}

func TestLocalPlanner_ModelErrorPropagates(t *testing.T) {
	p := NewLocalPlanner(WithModel(func(_ context.Context, _ string) (string, error) {
		return "", errors.New("model unavailable")
	}))

	_, err := p.Plan(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestHeuristicPlan_SequentialSteps(t *testing.T) {
	p := NewLocalPlanner()

	out, err := p.Plan(context.Background(), "check bgp sessions then check routes")
	require.NoError(t, err)

	plan := decodePlan(t, out)
	require.Len(t, plan.Todos, 2)
	assert.Equal(t, "check bgp sessions", plan.Todos[0].Task)
	assert.Empty(t, plan.Todos[0].Deps)
	assert.Equal(t, "check routes", plan.Todos[1].Task)
	assert.Equal(t, []int{1}, plan.Todos[1].Deps)
}

func TestHeuristicPlan_ParallelThenJoin(t *testing.T) {
	p := NewLocalPlanner()

	out, err := p.Plan(context.Background(),
		"check bgp and check interfaces then correlate findings")
	require.NoError(t, err)

	plan := decodePlan(t, out)
	require.Len(t, plan.Todos, 3)

	// The two "and" sub-tasks run in parallel; the join depends on both.
	assert.Empty(t, plan.Todos[0].Deps)
	assert.Empty(t, plan.Todos[1].Deps)
	assert.Equal(t, "correlate findings", plan.Todos[2].Task)
	assert.Equal(t, []int{1, 2}, plan.Todos[2].Deps)
}

func TestHeuristicPlan_ObjectiveSectionExtracted(t *testing.T) {
	p := NewLocalPlanner()

	prompt := "## Objective\ncheck vlan membership\n## Findings\nnone yet\n"
	out, err := p.Plan(context.Background(), prompt)
	require.NoError(t, err)

	plan := decodePlan(t, out)
	require.Len(t, plan.Todos, 1)
	assert.Equal(t, "check vlan membership", plan.Todos[0].Task)
}

func TestHeuristicPlan_RefinementBulletsBecomeTasks(t *testing.T) {
	p := NewLocalPlanner()

	prompt := "## Objective\nwhy is peering flapping\n" +
		"## Refinement\n" +
		"- task 1 returned no data from table bgp\n" +
		"- task 3 returned no data from table routes\n"
	out, err := p.Plan(context.Background(), prompt)
	require.NoError(t, err)

	plan := decodePlan(t, out)
	require.Len(t, plan.Todos, 2)
	assert.Equal(t, "narrow down root cause: task 1 returned no data from table bgp", plan.Todos[0].Task)
	assert.Equal(t, "narrow down root cause: task 3 returned no data from table routes", plan.Todos[1].Task)
	assert.Empty(t, plan.Todos[0].Deps)
	assert.Empty(t, plan.Todos[1].Deps)
}

func TestHeuristicPlan_SingleClauseObjective(t *testing.T) {
	p := NewLocalPlanner()

	out, err := p.Plan(context.Background(), "why are leaf uplinks flapping")
	require.NoError(t, err)

	plan := decodePlan(t, out)
	require.Len(t, plan.Todos, 1)
	assert.Equal(t, "why are leaf uplinks flapping", plan.Todos[0].Task)
}
