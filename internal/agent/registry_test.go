package agent

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/netdive/internal/collab"
)

// freeBasePort reserves one ephemeral port and returns its number. The
// following few ports are almost always free as well, which is what
// SpawnAll needs for its sequential assignment.
func freeBasePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// waitForCard polls an endpoint until the collaborator card answers.
func waitForCard(t *testing.T, client collab.Client, endpoint string) *collab.Card {
	t.Helper()

	var card *collab.Card
	var err error
	for range 100 {
		card, err = client.DiscoverCard(context.Background(), endpoint)
		if err == nil {
			return card
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	return card
}

func TestRegistry_SpawnByRole(t *testing.T) {
	r := NewRegistry(nil)

	ag, err := r.Spawn(RoleEvaluator)
	require.NoError(t, err)
	assert.True(t, ag.Card().Serves(collab.SkillEvaluator))
}

func TestRegistry_SpawnUnknownRole(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Spawn(Role("oracle"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no factory registered")
}

func TestRegistry_SpawnAllServesEverySkill(t *testing.T) {
	r := NewRegistry(testSnapshot())
	basePort := freeBasePort(t)
	ctx := context.Background()

	agents, err := r.SpawnAll(ctx, basePort)
	require.NoError(t, err)
	defer r.StopAll(ctx)
	require.Len(t, agents, 4)

	// Ports are assigned in a fixed role order.
	wantSkills := []collab.Skill{
		collab.SkillPlanner,
		collab.SkillSchema,
		collab.SkillTool,
		collab.SkillEvaluator,
	}
	client := collab.NewHTTPClient()
	for i, skill := range wantSkills {
		endpoint := "http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(basePort+i))
		card := waitForCard(t, client, endpoint)
		assert.True(t, card.Serves(skill), "port offset %d", i)
	}
}

func TestRegistry_SpawnedAgentAnswersOverHTTP(t *testing.T) {
	r := NewRegistry(testSnapshot())
	basePort := freeBasePort(t)
	ctx := context.Background()

	_, err := r.SpawnAll(ctx, basePort)
	require.NoError(t, err)
	defer r.StopAll(ctx)

	client := collab.NewHTTPClient()

	// Tool agent sits at basePort+2.
	toolEndpoint := "http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(basePort+2))
	waitForCard(t, client, toolEndpoint)

	resp, err := client.Execute(ctx, toolEndpoint, collab.ExecuteRequest{
		Table:   "bgp",
		Filters: map[string]string{"state": "Idle"},
	})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "spine2", resp.Data[0]["peer"])
}

func TestRegistry_StopAllIsIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()

	_, err := r.SpawnAll(ctx, freeBasePort(t))
	require.NoError(t, err)

	require.NoError(t, r.StopAll(ctx))
	require.NoError(t, r.StopAll(ctx))
}

func TestLocalPorts_AllPortsWired(t *testing.T) {
	ports := LocalPorts(testSnapshot())

	assert.NotNil(t, ports.Planner)
	assert.NotNil(t, ports.SchemaFinder)
	assert.NotNil(t, ports.ToolRunner)
	assert.NotNil(t, ports.Evaluator)
}

func TestLocalPorts_NilSnapshotUsesDefaultCatalog(t *testing.T) {
	ports := LocalPorts(nil)

	tables, err := ports.SchemaFinder.Discover(context.Background(), "bgp")
	require.NoError(t, err)
	assert.Contains(t, tables, "bgp")
}

func TestProber_FindsRunningCollaborator(t *testing.T) {
	ag := NewPlannerAgent()
	port := freeBasePort(t)
	ctx := context.Background()

	require.NoError(t, ag.Start(ctx, net.JoinHostPort("127.0.0.1", strconv.Itoa(port))))
	defer ag.Stop(ctx)

	client := collab.NewHTTPClient()
	endpoint := "http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	waitForCard(t, client, endpoint)

	p := NewProber(client)
	p.portRange = [2]int{port, port}

	found := p.Probe(ctx)
	assert.Equal(t, endpoint, found[collab.SkillPlanner])
}

func TestProber_EmptyRangeFindsNothing(t *testing.T) {
	// A port we just reserved and released answers nothing.
	port := freeBasePort(t)

	p := NewProber(collab.NewHTTPClient())
	p.portRange = [2]int{port, port}

	found := p.Probe(context.Background())
	assert.Empty(t, found)
}

