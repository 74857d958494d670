// Package checkpoint provides append-only checkpoint storage for
// resumable, replayable graph runs.
//
// A thread's checkpoints form a chain linked by ParentID. Savers never
// mutate or delete checkpoints within a run; superseded checkpoints
// stay retrievable for replay and branching. Concurrent writers to the
// same thread ID are a documented hazard: savers serialize individual
// operations, but interleaved runs appending to one thread must be
// serialized by the caller.
package checkpoint

import (
	"context"
	"errors"
)

// Saver persists checkpoint chains.
// Implementations must be safe for concurrent use.
type Saver interface {
	// Put appends a checkpoint to its thread's chain.
	// The checkpoint's ID must be unique; Put never overwrites.
	Put(ctx context.Context, cp *Checkpoint) error

	// Latest returns the most recent checkpoint for a thread.
	// Returns ErrNotFound if the thread has no checkpoints.
	Latest(ctx context.Context, threadID string) (*Checkpoint, error)

	// Get returns a specific checkpoint by ID within a thread.
	// Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, threadID, checkpointID string) (*Checkpoint, error)

	// List returns all checkpoints for a thread, newest to oldest.
	// The result is finite and the call is restartable: re-calling List
	// re-reads the chain from the start. Returns an empty slice (not an
	// error) if the thread has no checkpoints.
	List(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// DeleteThread removes all checkpoints for a thread.
	// Returns nil if the thread has no checkpoints.
	DeleteThread(ctx context.Context, threadID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates a thread or checkpoint doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrDuplicateID indicates Put was called with an ID already stored.
	ErrDuplicateID = errors.New("checkpoint ID already exists")

	// ErrSaverClosed indicates the saver has been closed.
	ErrSaverClosed = errors.New("checkpoint saver closed")
)
