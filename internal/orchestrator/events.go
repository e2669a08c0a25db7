package orchestrator

import (
	"sync"
	"time"
)

// EventKind classifies engine lifecycle events.
type EventKind string

const (
	// EventExecutionStarted marks the start of a task execution.
	EventExecutionStarted EventKind = "execution_started"
	// EventPlanCreated marks a successfully validated plan.
	EventPlanCreated EventKind = "plan_created"
	// EventDispatchFinished marks the end of subtask dispatch.
	EventDispatchFinished EventKind = "dispatch_finished"
	// EventArtifactsExtracted marks the end of artifact extraction.
	EventArtifactsExtracted EventKind = "artifacts_extracted"
	// EventHealingFinished marks the end of the healing phase.
	EventHealingFinished EventKind = "healing_finished"
	// EventExecutionFinished marks the end of a task execution.
	EventExecutionFinished EventKind = "execution_finished"
)

// Event is one entry in the per-execution audit log.
type Event struct {
	Kind      EventKind `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder accumulates events for one execution. Append-only.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Record appends an event.
func (r *Recorder) Record(kind EventKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: kind, Message: message, Timestamp: time.Now()})
}

// Events returns a copy of the recorded events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
