package deepdive

import "fmt"

// ProgressStatus is the state of one todo or phase within a round.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent is emitted to the host session during a run.
type ProgressEvent struct {
	Round   int
	Phase   Phase
	TodoID  int // 0 for phase-level events
	Status  ProgressStatus
	Message string
}

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
		// Drop the event if the channel is full.
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	subject := string(event.Phase)
	if event.TodoID > 0 {
		subject = fmt.Sprintf("todo %d", event.TodoID)
	}
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ [round %d] %s (pending)", event.Round, subject)
	case ProgressWorking:
		return fmt.Sprintf("  ● [round %d] %s...", event.Round, subject)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ [round %d] %s complete", event.Round, subject)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ [round %d] %s failed: %s", event.Round, subject, event.Message)
	default:
		return fmt.Sprintf("  ? [round %d] %s (unknown status)", event.Round, subject)
	}
}
