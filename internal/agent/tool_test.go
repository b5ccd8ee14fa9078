package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/netdive/internal/deepdive"
)

func testSnapshot() *Snapshot {
	return &Snapshot{Tables: map[string]SnapshotTable{
		"bgp": {
			Description: "BGP session state per peer",
			Fields:      []string{"hostname", "peer", "state"},
			Rows: []map[string]any{
				{"hostname": "leaf1", "peer": "spine1", "state": "Established"},
				{"hostname": "leaf1", "peer": "spine2", "state": "Idle"},
				{"hostname": "leaf2", "peer": "spine1", "state": "Established"},
			},
		},
		"vlan": {
			Fields: []string{"hostname", "vlan", "state"},
		},
	}}
}

func TestSnapshotToolRunner_UnknownTable(t *testing.T) {
	r := NewSnapshotToolRunner(testSnapshot())

	res, err := r.Execute(context.Background(), deepdive.ToolRequest{Table: "mpls"})
	require.NoError(t, err)
	assert.Equal(t, deepdive.ToolStatusSchemaNotFound, res.Status)
	assert.Empty(t, res.Data)
}

func TestSnapshotToolRunner_NoFiltersReturnsAllRows(t *testing.T) {
	r := NewSnapshotToolRunner(testSnapshot())

	res, err := r.Execute(context.Background(), deepdive.ToolRequest{Table: "bgp"})
	require.NoError(t, err)
	assert.Equal(t, deepdive.ToolStatusOK, res.Status)
	assert.Equal(t, []string{"hostname", "peer", "state"}, res.Columns)
	assert.Len(t, res.Data, 3)
}

func TestSnapshotToolRunner_ExactFilterMatch(t *testing.T) {
	r := NewSnapshotToolRunner(testSnapshot())

	res, err := r.Execute(context.Background(), deepdive.ToolRequest{
		Table:   "bgp",
		Filters: map[string]string{"hostname": "leaf1", "state": "Idle"},
	})
	require.NoError(t, err)
	assert.Equal(t, deepdive.ToolStatusOK, res.Status)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "spine2", res.Data[0]["peer"])
}

func TestSnapshotToolRunner_ContextFilterIgnored(t *testing.T) {
	r := NewSnapshotToolRunner(testSnapshot())

	res, err := r.Execute(context.Background(), deepdive.ToolRequest{
		Table:   "bgp",
		Filters: map[string]string{"context": "check peering on leaf1", "hostname": "leaf2"},
	})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "leaf2", res.Data[0]["hostname"])
}

func TestSnapshotToolRunner_NoMatchReportsNoData(t *testing.T) {
	r := NewSnapshotToolRunner(testSnapshot())

	res, err := r.Execute(context.Background(), deepdive.ToolRequest{
		Table:   "bgp",
		Filters: map[string]string{"hostname": "leaf9"},
	})
	require.NoError(t, err)
	assert.Equal(t, deepdive.ToolStatusNoData, res.Status)
	assert.Equal(t, []string{"hostname", "peer", "state"}, res.Columns)
	assert.Empty(t, res.Data)
}

func TestSnapshotToolRunner_EmptyTableReportsNoData(t *testing.T) {
	r := NewSnapshotToolRunner(testSnapshot())

	res, err := r.Execute(context.Background(), deepdive.ToolRequest{Table: "vlan"})
	require.NoError(t, err)
	assert.Equal(t, deepdive.ToolStatusNoData, res.Status)
}

func TestLoadSnapshot_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.yml")
	data := `tables:
  interfaces:
    description: interface state
    fields: [hostname, ifname, state]
    rows:
      - hostname: leaf1
        ifname: swp1
        state: up
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	snap, err := LoadSnapshot(path)
	require.NoError(t, err)

	require.Contains(t, snap.Tables, "interfaces")
	table := snap.Tables["interfaces"]
	assert.Equal(t, []string{"hostname", "ifname", "state"}, table.Fields)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "up", table.Rows[0]["state"])

	catalog := snap.Catalog()
	require.Contains(t, catalog, "interfaces")
	assert.Equal(t, "interface state", catalog["interfaces"].Description)
}

func TestLoadSnapshot_Fixture(t *testing.T) {
	// Tests run from internal/agent/, so the fixture sits two levels up.
	snap, err := LoadSnapshot(filepath.Join("..", "..", "testdata", "fixtures", "snapshot.yml"))
	require.NoError(t, err)

	for _, name := range []string{"device", "interfaces", "bgp", "routes", "lldp"} {
		require.Contains(t, snap.Tables, name)
	}

	r := NewSnapshotToolRunner(snap)
	res, err := r.Execute(context.Background(), deepdive.ToolRequest{
		Table:   "bgp",
		Filters: map[string]string{"state": "Idle"},
	})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "spine2", res.Data[0]["peer"])
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read snapshot")
}

func TestLoadSnapshot_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("tables: [not: a: map"), 0o644))

	_, err := LoadSnapshot(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse snapshot")
}
