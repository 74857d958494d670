package stategraph

// Reducer folds a node's delta for one channel into the current value.
// Reducers must be total: any (current, delta) pair the graph can
// produce must yield a value, not a panic. They are applied once per
// write during the merge phase, in node-registration order within a
// superstep, so they need not be commutative.
type Reducer func(current, delta any) any

// DefaultFunc produces the initial value for a channel before any node
// has written to it.
type DefaultFunc func() any

// ChannelSpec describes one state channel: how concurrent writes merge
// and what the channel holds before the first write.
type ChannelSpec struct {
	// Reducer merges a delta into the current value. Nil means
	// last-write-wins.
	Reducer Reducer

	// Default produces the initial value. Nil means nil.
	Default DefaultFunc
}

// Schema maps channel names to their merge behavior. Channels not
// declared in the schema use last-write-wins with a nil default.
//
// Schema is not safe for concurrent mutation; build it up front, then
// share it freely.
type Schema struct {
	channels map[string]ChannelSpec
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{channels: make(map[string]ChannelSpec)}
}

// AddChannel declares a channel with the given spec.
// Returns the schema for method chaining.
//
// Panics if name is empty. Re-declaring a channel replaces its spec.
func (s *Schema) AddChannel(name string, spec ChannelSpec) *Schema {
	if name == "" {
		panic("stategraph: channel name cannot be empty")
	}
	s.channels[name] = spec
	return s
}

// Channel returns the spec for a channel and whether it was declared.
func (s *Schema) Channel(name string) (ChannelSpec, bool) {
	spec, ok := s.channels[name]
	return spec, ok
}

// Channels returns the declared channel names. Order is not guaranteed.
func (s *Schema) Channels() []string {
	names := make([]string, 0, len(s.channels))
	for name := range s.channels {
		names = append(names, name)
	}
	return names
}

// initialState builds a state with every declared channel set to its
// default value.
func (s *Schema) initialState() State {
	state := make(State, len(s.channels))
	for name, spec := range s.channels {
		if spec.Default != nil {
			state[name] = spec.Default()
		} else {
			state[name] = nil
		}
	}
	return state
}

// reduce applies one write to one channel. Undeclared channels fall
// back to last-write-wins.
func (s *Schema) reduce(state State, channel string, delta any) {
	spec, ok := s.channels[channel]
	if !ok || spec.Reducer == nil {
		state[channel] = delta
		return
	}
	state[channel] = spec.Reducer(state[channel], delta)
}

// clearMarker is the sentinel written to an append channel to reset it.
type clearMarker struct{}

// Clear is an explicit reset marker for append channels. Writing Clear
// to a channel whose reducer is Append empties the accumulator; writing
// an empty slice appends nothing but preserves existing values. The two
// operations are deliberately distinct: resetting is always spelled
// Clear, never an empty delta.
var Clear = clearMarker{}

// LastValue returns a spec where the delta replaces the current value.
// This is also the behavior of undeclared channels.
func LastValue() ChannelSpec {
	return ChannelSpec{
		Reducer: func(current, delta any) any { return delta },
	}
}

// OverwriteIfPresent returns a spec where a nil delta keeps the current
// value and any other delta replaces it.
func OverwriteIfPresent() ChannelSpec {
	return ChannelSpec{
		Reducer: func(current, delta any) any {
			if delta == nil {
				return current
			}
			return delta
		},
	}
}

// Append returns a spec that accumulates writes into a []any.
//
// A delta of []any concatenates; any other non-sentinel value appends
// as a single element. Writing Clear resets the accumulator to the
// default. The default factory may be nil, meaning start from empty.
func Append(defaultFn DefaultFunc) ChannelSpec {
	if defaultFn == nil {
		defaultFn = func() any { return []any{} }
	}
	return ChannelSpec{
		Default: defaultFn,
		Reducer: func(current, delta any) any {
			if _, isClear := delta.(clearMarker); isClear {
				return defaultFn()
			}
			cur, _ := current.([]any)
			switch d := delta.(type) {
			case []any:
				out := make([]any, 0, len(cur)+len(d))
				out = append(out, cur...)
				return append(out, d...)
			default:
				out := make([]any, 0, len(cur)+1)
				out = append(out, cur...)
				return append(out, delta)
			}
		},
	}
}
