// Package event provides the engine's run-event stream: typed records
// of what a graph run did (supersteps, node tasks, checkpoints,
// interrupts) plus a small in-memory pub/sub bus so external observers
// can watch runs without touching the scheduler.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Engine event types.
const (
	TypeRunStart       = "run.start"
	TypeRunComplete    = "run.complete"
	TypeRunError       = "run.error"
	TypeRunInterrupted = "run.interrupted"
	TypeStepStart      = "step.start"
	TypeStepCommit     = "step.commit"
	TypeNodeStart      = "node.start"
	TypeNodeComplete   = "node.complete"
	TypeNodeError      = "node.error"
	TypeCheckpoint     = "checkpoint.saved"
)

// Event is one immutable record in a run's event stream.
type Event struct {
	// ID uniquely identifies this event.
	ID string `json:"id"`

	// Type is one of the Type* constants.
	Type string `json:"type"`

	// ThreadID identifies the run's thread.
	ThreadID string `json:"thread_id"`

	// Step is the superstep the event belongs to.
	Step int `json:"step"`

	// NodeID is set for node-scoped events.
	NodeID string `json:"node_id,omitempty"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Payload carries type-specific data: committed values for
	// step.commit, the node delta for node.complete, the error string
	// for error events, the checkpoint ID for checkpoint.saved.
	Payload any `json:"payload,omitempty"`
}

// New creates an event with a fresh ID and UTC timestamp.
func New(eventType, threadID string, step int) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		ThreadID:  threadID,
		Step:      step,
		Timestamp: time.Now().UTC(),
	}
}

// WithNode sets the node ID.
func (e Event) WithNode(nodeID string) Event {
	e.NodeID = nodeID
	return e
}

// WithPayload sets the payload.
func (e Event) WithPayload(payload any) Event {
	e.Payload = payload
	return e
}
