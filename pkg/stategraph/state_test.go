package stategraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestState_Clone copies keys without sharing the map.
func TestState_Clone(t *testing.T) {
	s := State{"a": 1}
	c := s.Clone()
	c["a"] = 2

	assert.Equal(t, 1, s["a"])
	assert.Equal(t, 2, c["a"])
}

// TestState_Clone_Nil returns an empty state.
func TestState_Clone_Nil(t *testing.T) {
	var s State
	c := s.Clone()
	assert.NotNil(t, c)
	assert.Empty(t, c)
}

// TestState_Getters covers the typed accessors, including the float64
// form numbers take after a JSON round-trip.
func TestState_Getters(t *testing.T) {
	s := State{
		"name":  "alpha",
		"count": 3,
		"score": float64(7),
		"items": []any{"x"},
	}

	assert.Equal(t, "alpha", s.GetString("name"))
	assert.Equal(t, "", s.GetString("count"))
	assert.Equal(t, 3, s.GetInt("count"))
	assert.Equal(t, 7, s.GetInt("score"))
	assert.Equal(t, 0, s.GetInt("name"))
	assert.Equal(t, []any{"x"}, s.GetSlice("items"))
	assert.Nil(t, s.GetSlice("name"))
	assert.True(t, s.Has("name"))
	assert.False(t, s.Has("missing"))
	assert.Nil(t, s.Get("missing"))
}
