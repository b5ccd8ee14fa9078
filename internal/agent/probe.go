package agent

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dusk-indust/netdive/internal/collab"
)

// Prober scans a local port range for running collaborators and maps each
// advertised skill to the endpoint serving it.
type Prober struct {
	client       collab.Client
	probeTimeout time.Duration
	portRange    [2]int // [start, end] inclusive
}

// NewProber creates a Prober over the default local port range.
func NewProber(client collab.Client) *Prober {
	return &Prober{
		client:       client,
		probeTimeout: 500 * time.Millisecond,
		portRange:    [2]int{9100, 9110},
	}
}

// Probe concurrently probes the port range and returns a skill → endpoint
// map. When several collaborators serve the same skill the lowest port wins.
func (p *Prober) Probe(ctx context.Context) map[collab.Skill]string {
	type hit struct {
		endpoint string
		card     *collab.Card
	}

	var (
		mu   sync.Mutex
		hits []hit
		wg   sync.WaitGroup
	)

	for port := p.portRange[0]; port <= p.portRange[1]; port++ {
		endpoint := fmt.Sprintf("http://127.0.0.1:%d", port)
		wg.Add(1)
		go func(ep string) {
			defer wg.Done()
			card := p.probeOne(ctx, ep)
			if card == nil {
				return
			}
			mu.Lock()
			hits = append(hits, hit{endpoint: ep, card: card})
			mu.Unlock()
		}(endpoint)
	}

	wg.Wait()

	byEndpoint := make(map[string]*collab.Card, len(hits))
	for _, h := range hits {
		byEndpoint[h.endpoint] = h.card
	}

	found := make(map[collab.Skill]string)
	for port := p.portRange[0]; port <= p.portRange[1]; port++ {
		ep := fmt.Sprintf("http://127.0.0.1:%d", port)
		card, ok := byEndpoint[ep]
		if !ok {
			continue
		}
		for _, skill := range card.Skills {
			if _, taken := found[skill]; !taken {
				found[skill] = ep
			}
		}
	}

	if len(found) > 0 {
		log.Printf("prober: discovered %d skill(s) across %d collaborator(s)", len(found), len(hits))
	}
	return found
}

// probeOne attempts card discovery at one endpoint. Returns nil if the
// endpoint does not answer with a valid card within the timeout.
func (p *Prober) probeOne(ctx context.Context, endpoint string) (card *collab.Card) {
	// Catch panics from transport internals.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("prober: panic probing %s: %v", endpoint, r)
			card = nil
		}
	}()

	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	c, err := p.client.DiscoverCard(probeCtx, endpoint)
	if err != nil {
		return nil
	}
	return c
}
