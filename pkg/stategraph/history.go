package stategraph

import (
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/stategraph/pkg/stategraph/checkpoint"
)

// StateSnapshot is a read-only view of one checkpoint: the committed
// state, the frontier that would run next, and the chain metadata
// needed to replay or branch from this point.
type StateSnapshot struct {
	// Values is the committed state at this checkpoint.
	Values State
	// Next is the frontier recorded for the following superstep.
	Next []string
	// CheckpointID identifies this checkpoint within the thread.
	CheckpointID string
	// ParentID is the previous checkpoint in the chain, empty at the root.
	ParentID string
	// Step is the superstep that produced this checkpoint.
	Step int
	// Source records what produced the checkpoint: "input", "loop", or
	// "update".
	Source string
	// CreatedAt is when the checkpoint was persisted.
	CreatedAt time.Time
	// Writes records which node wrote which channel in this step.
	Writes []checkpoint.Write
}

// GetState returns the thread's latest snapshot, or the snapshot of a
// pinned checkpoint when WithCheckpointID is given. Requires a saver
// and a thread ID.
func (cg *CompiledGraph) GetState(ctx Context, opts ...RunOption) (*StateSnapshot, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := requireThread(&cfg); err != nil {
		return nil, err
	}

	ec := asExecution(ctx).forRun(cfg.threadID, cfg.saver)
	cp, err := cg.loadCheckpoint(ec, &cfg)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, &CheckpointError{ThreadID: cfg.threadID, Op: "get", Err: checkpoint.ErrNotFound}
	}
	return snapshotFrom(cp), nil
}

// GetStateHistory returns the thread's snapshots newest to oldest.
// Requires a saver and a thread ID. A fresh thread yields an empty
// history, not an error.
func (cg *CompiledGraph) GetStateHistory(ctx Context, opts ...RunOption) ([]*StateSnapshot, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := requireThread(&cfg); err != nil {
		return nil, err
	}

	ec := asExecution(ctx).forRun(cfg.threadID, cfg.saver)
	chain, err := cfg.saver.List(ec, cfg.threadID)
	if err != nil && !errors.Is(err, checkpoint.ErrNotFound) {
		return nil, &CheckpointError{ThreadID: cfg.threadID, Op: "list", Err: err}
	}

	snapshots := make([]*StateSnapshot, 0, len(chain))
	for _, cp := range chain {
		snapshots = append(snapshots, snapshotFrom(cp))
	}
	return snapshots, nil
}

// UpdateState writes a manual state edit into the thread as a new
// checkpoint and returns its ID. The edit never mutates history: it
// becomes a child of the latest (or pinned) checkpoint, so updating a
// historical checkpoint forks a new branch while the original chain
// stays replayable.
//
// values flows through the normal reducers, attributed to asNode. The
// new checkpoint's frontier is what would follow asNode: the entry
// nodes for START (or empty asNode), the node's successors otherwise,
// with routers evaluated against the edited state. A subsequent nil
// input Invoke on the thread continues from the edit.
func (cg *CompiledGraph) UpdateState(ctx Context, values State, asNode string, opts ...RunOption) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := requireThread(&cfg); err != nil {
		return "", err
	}
	if asNode == "" {
		asNode = START
	}
	if asNode != START && asNode != END && !cg.HasNode(asNode) {
		return "", fmt.Errorf("%w: %s", ErrNodeNotFound, asNode)
	}

	ec := asExecution(ctx).forRun(cfg.threadID, cfg.saver)
	parent, err := cg.loadCheckpoint(ec, &cfg)
	if err != nil {
		return "", err
	}

	state := cg.schema.initialState()
	step := 0
	parentID := ""
	if parent != nil {
		state = State(parent.Values).Clone()
		step = parent.Step + 1
		parentID = parent.ID
	}

	var writes []checkpoint.Write
	for _, channel := range sortedChannels(values) {
		cg.schema.reduce(state, channel, values[channel])
		writes = append(writes, checkpoint.Write{Node: asNode, Channel: channel})
	}

	next, err := cg.frontierAfter(ec, state, asNode, step)
	if err != nil {
		return "", err
	}

	cp := checkpoint.New(cfg.threadID, step, checkpoint.SourceUpdate, state, next).
		WithParent(parentID).
		WithWrites(writes)
	if err := cg.putCheckpoint(ec, &cfg, cp); err != nil {
		return "", err
	}
	return cp.ID, nil
}

// frontierAfter computes the frontier that would follow asNode with the
// given state.
func (cg *CompiledGraph) frontierAfter(ec *executionContext, state State, asNode string, step int) ([]string, error) {
	switch asNode {
	case START:
		return cg.sortFrontier(cg.entries), nil
	case END:
		return nil, nil
	default:
		return cg.nextFrontier(ec, state, []string{asNode}, step)
	}
}

func requireThread(cfg *runConfig) error {
	if cfg.saver == nil {
		return ErrSaverRequired
	}
	if cfg.threadID == "" {
		return ErrThreadRequired
	}
	return nil
}

func snapshotFrom(cp *checkpoint.Checkpoint) *StateSnapshot {
	return &StateSnapshot{
		Values:       State(cp.Values),
		Next:         append([]string{}, cp.Next...),
		CheckpointID: cp.ID,
		ParentID:     cp.ParentID,
		Step:         cp.Step,
		Source:       cp.Source,
		CreatedAt:    cp.Timestamp,
		Writes:       append([]checkpoint.Write{}, cp.Writes...),
	}
}
