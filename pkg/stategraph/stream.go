package stategraph

import (
	"github.com/randalmurphal/stategraph/pkg/stategraph/event"
)

// StreamItem is one element of a run's stream. Exactly one of Values,
// Updates, Event, or Err is set, according to the stream mode; Err is
// terminal and carries the run's failure or *Interrupt.
type StreamItem struct {
	// Step is the superstep the item belongs to.
	Step int

	// Values is the full post-merge state (StreamValues mode).
	Values State

	// Updates maps executed node IDs to the deltas they wrote
	// (StreamUpdates mode).
	Updates map[string]State

	// Event is a granular engine event (StreamEvents mode).
	Event *event.Event

	// Err is the run's terminal error, if it did not complete.
	Err error
}

// Stream executes the graph like Invoke but delivers progress through a
// channel: one item per committed superstep, shaped by WithStreamMode.
// The channel closes when the run completes, fails, or is interrupted;
// a failure or interrupt arrives as a final item with Err set.
//
// An aborted tick emits nothing: items only ever reflect committed
// state.
func (cg *CompiledGraph) Stream(ctx Context, input State, opts ...RunOption) (<-chan StreamItem, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ch := make(chan StreamItem, 16)

	go func() {
		defer close(ch)

		emit := func(item StreamItem) {
			select {
			case ch <- item:
			case <-ctx.Done():
			}
		}

		if _, err := cg.run(ctx, input, &cfg, emit); err != nil {
			// The buffered send comes first so the terminal item is
			// delivered even when the run ended because ctx was
			// canceled and both select cases would be ready.
			select {
			case ch <- StreamItem{Err: err}:
			default:
				emit(StreamItem{Err: err})
			}
		}
	}()

	return ch, nil
}
