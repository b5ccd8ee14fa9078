package collab

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Invocation records one collaborator call handled by a server.
type Invocation struct {
	ID       string    `json:"id"`
	Method   string    `json:"method"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished,omitzero"`
	Err      string    `json:"err,omitempty"`
}

// InvocationLog is a concurrency-safe, insertion-ordered record of handled
// calls, kept per server for inspection.
type InvocationLog struct {
	mu      sync.RWMutex
	entries map[string]*Invocation
	order   []string
}

// NewInvocationLog returns an empty InvocationLog.
func NewInvocationLog() *InvocationLog {
	return &InvocationLog{
		entries: make(map[string]*Invocation),
	}
}

// Begin records the start of a call and returns its id.
func (l *InvocationLog) Begin(method string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	inv := &Invocation{
		ID:      uuid.NewString(),
		Method:  method,
		Started: time.Now(),
	}
	l.entries[inv.ID] = inv
	l.order = append(l.order, inv.ID)
	return inv.ID
}

// Finish stamps the call's end and any error.
func (l *InvocationLog) Finish(id string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	inv, ok := l.entries[id]
	if !ok {
		return
	}
	inv.Finished = time.Now()
	if err != nil {
		inv.Err = err.Error()
	}
}

// List returns copies of all invocations in insertion order.
func (l *InvocationLog) List() []Invocation {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Invocation, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.entries[id])
	}
	return out
}
