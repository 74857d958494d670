package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to checkpoint structure.
const Version = 1

// Checkpoint sources. Source records how a checkpoint came to exist.
const (
	// SourceInput marks the checkpoint written when a run receives new
	// input, before any superstep executes.
	SourceInput = "input"
	// SourceLoop marks checkpoints written after each completed superstep.
	SourceLoop = "loop"
	// SourceUpdate marks checkpoints synthesized by a manual state
	// update (branching / human-in-the-loop correction).
	SourceUpdate = "update"
)

// Write records which node wrote which channel during the superstep
// that produced a checkpoint. Provenance only; values live in State.
type Write struct {
	Node    string `json:"node"`
	Channel string `json:"channel"`
}

// Checkpoint is an immutable snapshot of a run: the committed channel
// values plus the scheduling metadata needed to resume. Checkpoints
// form an append-only chain per thread via ParentID; branching creates
// a child chain sharing a common prefix. A checkpoint is never mutated
// after creation.
type Checkpoint struct {
	// Metadata
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Step      int       `json:"step"`
	Source    string    `json:"source"`
	ParentID  string    `json:"parent_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Execution state
	Values State    `json:"values"`
	Next   []string `json:"next"`
	Writes []Write  `json:"writes,omitempty"`

	// enc caches the JSON encoding; a checkpoint is encoded by the
	// saver and again for size metrics within one commit.
	enc []byte
}

// State is the channel-name to value mapping persisted in a checkpoint.
// It mirrors stategraph.State but is declared here so the storage layer
// has no dependency on the engine.
type State = map[string]any

// New creates a checkpoint with a fresh ID and UTC timestamp.
func New(threadID string, step int, source string, values State, next []string) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		Step:      step,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Values:    values,
		Next:      next,
	}
}

// WithParent links the checkpoint to its predecessor in the chain.
func (c *Checkpoint) WithParent(parentID string) *Checkpoint {
	c.ParentID = parentID
	c.enc = nil
	return c
}

// WithWrites attaches write provenance for the superstep.
func (c *Checkpoint) WithWrites(writes []Write) *Checkpoint {
	c.Writes = writes
	c.enc = nil
	return c
}

// Marshal serializes the checkpoint to JSON. The encoding is computed
// once and reused on later calls; the With builders invalidate it.
func (c *Checkpoint) Marshal() ([]byte, error) {
	if c.enc != nil {
		return c.enc, nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	c.enc = data
	return data, nil
}

// Unmarshal deserializes a checkpoint from JSON.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
