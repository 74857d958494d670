package stategraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph building and compilation.
var (
	// ErrDuplicateNode indicates AddNode was called twice with the same ID.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrNodeNotFound indicates an edge or path map references a
	// non-existent node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoEntryPoint indicates no entry was set before Compile.
	ErrNoEntryPoint = errors.New("entry point not set")

	// ErrEntryNotFound indicates the entry references a non-existent node.
	ErrEntryNotFound = errors.New("entry point node not found")

	// ErrNoPathToEnd indicates no path exists from the entry to END.
	ErrNoPathToEnd = errors.New("no path to END from entry")

	// ErrDeadEndNode indicates a non-terminal node has no outgoing edge.
	ErrDeadEndNode = errors.New("node has no outgoing edge")
)

// Sentinel errors for execution.
var (
	// ErrRecursionLimit indicates the superstep count exceeded the
	// configured ceiling. Cycles are legal, so this is the only guard
	// against a loop with no exit condition.
	ErrRecursionLimit = errors.New("recursion limit exceeded")

	// ErrNilContext indicates Invoke or Stream was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrInvalidRouterResult indicates a router returned no branches.
	ErrInvalidRouterResult = errors.New("router returned no branches")

	// ErrUnknownBranch indicates a router returned a label missing from
	// its path map.
	ErrUnknownBranch = errors.New("router returned unknown branch")

	// ErrThreadRequired indicates checkpointing was requested without a
	// thread ID.
	ErrThreadRequired = errors.New("thread ID required for checkpointing")

	// ErrInputRequired indicates a run was started with nil input and no
	// checkpoint to resume from.
	ErrInputRequired = errors.New("input required: no checkpoint to resume")

	// ErrSaverRequired indicates a state inspection or update was
	// attempted without a checkpoint saver configured.
	ErrSaverRequired = errors.New("checkpoint saver required")
)

// NodeError wraps an error from a node task. The superstep that
// produced it was fully discarded: no deltas from any sibling node in
// that tick were merged, and the last committed checkpoint is intact.
type NodeError struct {
	// NodeID is the identifier of the node that failed.
	NodeID string
	// Step is the superstep in which the failure occurred.
	Step int
	// Err is the underlying error from the node.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (step %d): %v", e.NodeID, e.Step, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from a node task.
type PanicError struct {
	// NodeID is the identifier of the node that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// RouterError wraps errors from conditional edge routing.
type RouterError struct {
	// FromNode is the node with the conditional edge.
	FromNode string
	// Returned is the branch labels the router returned.
	Returned []string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RouterError) Error() string {
	return fmt.Sprintf("router from %s returned %v: %v", e.FromNode, e.Returned, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RouterError) Unwrap() error {
	return e.Err
}

// RecursionError provides context when the superstep ceiling is exceeded.
type RecursionError struct {
	// Limit is the configured superstep ceiling.
	Limit int
	// Frontier is the frontier that would have run next.
	Frontier []string
	// State is the last committed state (type State).
	State State
}

// Error implements the error interface.
func (e *RecursionError) Error() string {
	return fmt.Sprintf("recursion limit (%d) exceeded; next frontier %v", e.Limit, e.Frontier)
}

// Unwrap returns ErrRecursionLimit for errors.Is support.
func (e *RecursionError) Unwrap() error {
	return ErrRecursionLimit
}

// CancellationError captures the state when a run was cancelled between
// supersteps. Ticks are the atomic unit of cancellation: a started tick
// always runs to completion before the cancellation is observed.
type CancellationError struct {
	// Frontier is the frontier that was about to run.
	Frontier []string
	// State is the last committed state.
	State State
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancelled before frontier %v: %v", e.Frontier, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// CheckpointError wraps errors from checkpoint persistence.
type CheckpointError struct {
	// ThreadID is the thread being checkpointed.
	ThreadID string
	// Op is the operation that failed ("put", "get", "serialize").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s for thread %s: %v", e.Op, e.ThreadID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CheckpointError) Unwrap() error {
	return e.Err
}
