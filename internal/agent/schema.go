package agent

import (
	"context"
	"strings"

	"github.com/dusk-indust/netdive/internal/collab"
	"github.com/dusk-indust/netdive/internal/deepdive"
)

// Compile-time port check.
var _ deepdive.SchemaFinder = (*CatalogSchemaFinder)(nil)

// DefaultCatalog is the built-in telemetry table catalog, shaped after the
// SuzieQ table namespace. Production deployments replace it with the
// catalog discovered from the live poller.
var DefaultCatalog = map[string]deepdive.TableSchema{
	"device": {
		Fields:      []string{"hostname", "model", "version", "vendor", "status", "uptime"},
		Description: "device inventory and software versions",
	},
	"interfaces": {
		Fields:      []string{"hostname", "ifname", "state", "adminState", "mtu", "speed", "type"},
		Description: "interface state and counters",
	},
	"bgp": {
		Fields:      []string{"hostname", "peer", "peerAsn", "state", "vrf", "afi", "safi", "numChanges"},
		Description: "BGP session state per peer",
	},
	"ospf": {
		Fields:      []string{"hostname", "ifname", "area", "state", "peerHostname"},
		Description: "OSPF adjacency state",
	},
	"routes": {
		Fields:      []string{"hostname", "vrf", "prefix", "nexthopIps", "protocol"},
		Description: "routing table entries",
	},
	"macs": {
		Fields:      []string{"hostname", "vlan", "macaddr", "oif", "remoteVtepIp"},
		Description: "MAC address table",
	},
	"vlan": {
		Fields:      []string{"hostname", "vlan", "state", "interfaces"},
		Description: "VLAN membership",
	},
	"lldp": {
		Fields:      []string{"hostname", "ifname", "peerHostname", "peerIfname"},
		Description: "LLDP neighbor adjacency",
	},
	"evpnVni": {
		Fields:      []string{"hostname", "vni", "state", "remoteVteps", "type"},
		Description: "EVPN VNI state",
	},
	"arpnd": {
		Fields:      []string{"hostname", "ipAddress", "macaddr", "oif", "state"},
		Description: "ARP and neighbor discovery entries",
	},
	"mlag": {
		Fields:      []string{"hostname", "state", "peerAddress", "role"},
		Description: "MLAG peering state",
	},
}

// CatalogSchemaFinder is the schema port served from a static catalog.
// Discover matches query words against table names, fields, and
// descriptions; an empty result is a meaningful "no match".
type CatalogSchemaFinder struct {
	catalog map[string]deepdive.TableSchema
}

// NewCatalogSchemaFinder creates a finder over the given catalog; a nil
// catalog uses DefaultCatalog.
func NewCatalogSchemaFinder(catalog map[string]deepdive.TableSchema) *CatalogSchemaFinder {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	return &CatalogSchemaFinder{catalog: catalog}
}

// Discover returns every catalog table mentioned by the query.
func (f *CatalogSchemaFinder) Discover(_ context.Context, query string) (map[string]deepdive.TableSchema, error) {
	words := tokenize(query)
	out := make(map[string]deepdive.TableSchema)

	for name, schema := range f.catalog {
		if matchesTable(words, name, schema) {
			out[name] = schema
		}
	}
	return out, nil
}

// matchesTable reports whether any query word hits the table name, a field
// name, or a description word.
func matchesTable(words []string, name string, schema deepdive.TableSchema) bool {
	lowered := strings.ToLower(name)
	descWords := tokenize(schema.Description)

	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		if strings.Contains(lowered, w) || strings.Contains(w, lowered) {
			return true
		}
		for _, f := range schema.Fields {
			if strings.EqualFold(f, w) {
				return true
			}
		}
		for _, d := range descWords {
			if d == w {
				return true
			}
		}
	}
	return false
}

// tokenize lower-cases and splits text on non-alphanumeric runes.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

// SchemaAgent serves the schema skill over the collaborator protocol.
type SchemaAgent struct {
	*BaseAgent
	finder *CatalogSchemaFinder
}

// NewSchemaAgent creates a SchemaAgent over the given catalog (nil for the
// default).
func NewSchemaAgent(catalog map[string]deepdive.TableSchema) *SchemaAgent {
	sa := &SchemaAgent{
		finder: NewCatalogSchemaFinder(catalog),
	}

	card := collab.Card{
		Name:        "schema-agent",
		Description: "Answers keyword queries against the discovered telemetry table catalog",
		Version:     version,
		Skills:      []collab.Skill{collab.SkillSchema},
	}

	sa.BaseAgent = NewBaseAgent(card, collab.WithDiscoverHandler(
		func(ctx context.Context, req collab.DiscoverRequest) (*collab.DiscoverResponse, error) {
			tables, err := sa.finder.Discover(ctx, req.Query)
			if err != nil {
				return nil, err
			}
			return &collab.DiscoverResponse{Tables: tables}, nil
		}))

	return sa
}
