package stategraph

// State is a snapshot of channel values keyed by channel name.
//
// Nodes receive the state as of the start of the superstep and return a
// partial State containing only the channels they write. A key absent
// from a delta means "no write this tick" and the channel's reducer is
// not called. A key present with an empty collection is still a write:
// the reducer runs with the empty delta, which some reducers treat as
// meaningful (see Append and Clear).
type State map[string]any

// Clone returns a shallow copy of the state. Channel values are shared;
// reducers must treat inputs as immutable and return new values.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Has reports whether the channel is present in the snapshot.
func (s State) Has(channel string) bool {
	_, ok := s[channel]
	return ok
}

// Get returns the channel value, or nil if absent.
func (s State) Get(channel string) any {
	return s[channel]
}

// GetString returns the channel value as a string, or "" if absent or
// not a string.
func (s State) GetString(channel string) string {
	if v, ok := s[channel].(string); ok {
		return v
	}
	return ""
}

// GetInt returns the channel value as an int. JSON round-trips store
// numbers as float64, so both forms are accepted.
func (s State) GetInt(channel string) int {
	switch v := s[channel].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// GetSlice returns the channel value as []any, or nil if absent or not
// a slice.
func (s State) GetSlice(channel string) []any {
	if v, ok := s[channel].([]any); ok {
		return v
	}
	return nil
}
