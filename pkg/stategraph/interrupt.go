package stategraph

import "fmt"

// Interrupt is returned (as an error) when a run pauses at an
// interrupt point. It carries the resumption token: the thread ID and
// the checkpoint whose Next field names the paused frontier.
//
// Resuming is re-invoking the graph with nil input against the same
// thread; the scheduler reloads the checkpoint and continues exactly as
// if no interruption occurred. Between pause and resume the caller may
// steer the run with UpdateState.
type Interrupt struct {
	// ThreadID identifies the paused run.
	ThreadID string
	// CheckpointID is the checkpoint holding the paused frontier.
	CheckpointID string
	// Nodes is the frontier members that triggered the pause.
	Nodes []string
	// Step is the superstep at which the run paused.
	Step int
	// Before is true for before-mode interrupts (the named nodes have
	// not run), false for after-mode (they ran and their writes are
	// committed).
	Before bool
	// State is the committed state at the pause point.
	State State
}

// Error implements the error interface.
func (i *Interrupt) Error() string {
	mode := "before"
	if !i.Before {
		mode = "after"
	}
	return fmt.Sprintf("interrupted %s %v (thread %s, step %d)", mode, i.Nodes, i.ThreadID, i.Step)
}

// AsInterrupt extracts an *Interrupt from an error, if present.
func AsInterrupt(err error) (*Interrupt, bool) {
	i, ok := err.(*Interrupt)
	return i, ok
}

// IsInterrupt reports whether err is a pause rather than a failure.
func IsInterrupt(err error) bool {
	_, ok := err.(*Interrupt)
	return ok
}
