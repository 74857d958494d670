package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChunk_Combine_Associative verifies the monoid law: any grouping
// of the same chunk sequence folds to the same result.
func TestChunk_Combine_Associative(t *testing.T) {
	a := Chunk{Role: RoleAssistant, Content: "Hel"}
	b := Chunk{Content: "lo, "}
	c := Chunk{Content: "world"}

	left := a.Combine(b).Combine(c)
	right := a.Combine(b.Combine(c))
	assert.Equal(t, left, right)
	assert.Equal(t, "Hello, world", left.Content)
	assert.Equal(t, RoleAssistant, left.Role)
}

// TestChunk_Combine_ZeroIsIdentity verifies the zero chunk changes
// nothing on either side.
func TestChunk_Combine_ZeroIsIdentity(t *testing.T) {
	c := Chunk{Role: RoleAssistant, Content: "hi"}
	var zero Chunk

	assert.Equal(t, c, zero.Combine(c))
	assert.Equal(t, c, c.Combine(zero))
}

// TestChunk_Combine_FirstRoleWins keeps the earliest role.
func TestChunk_Combine_FirstRoleWins(t *testing.T) {
	out := Chunk{Role: RoleAssistant}.Combine(Chunk{Role: RoleSystem, Content: "x"})
	assert.Equal(t, RoleAssistant, out.Role)
}

// TestChunk_Combine_FirstErrorWins keeps the earliest error.
func TestChunk_Combine_FirstErrorWins(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	out := Chunk{Err: first}.Combine(Chunk{Err: second})
	assert.Same(t, first, out.Err)
}

// TestFold assembles a streamed response into one message.
func TestFold(t *testing.T) {
	ch := make(chan Chunk, 3)
	ch <- Chunk{Role: RoleAssistant, Content: "one "}
	ch <- Chunk{Content: "two "}
	ch <- Chunk{Content: "three"}
	close(ch)

	msg, err := Fold(ch)
	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, "one two three", msg.Content)
}

// TestFold_Error surfaces stream failures.
func TestFold_Error(t *testing.T) {
	boom := errors.New("rate limited")
	ch := make(chan Chunk, 2)
	ch <- Chunk{Content: "partial"}
	ch <- Chunk{Err: boom}
	close(ch)

	_, err := Fold(ch)
	assert.ErrorIs(t, err, boom)
}

// TestFold_EmptyStream defaults to an empty assistant message.
func TestFold_EmptyStream(t *testing.T) {
	ch := make(chan Chunk)
	close(ch)

	msg, err := Fold(ch)
	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Empty(t, msg.Content)
}

// TestMessageHelpers tag roles correctly.
func TestMessageHelpers(t *testing.T) {
	assert.Equal(t, Message{Role: RoleSystem, Content: "s"}, SystemMessage("s"))
	assert.Equal(t, Message{Role: RoleUser, Content: "u"}, UserMessage("u"))
	assert.Equal(t, Message{Role: RoleAssistant, Content: "a"}, AssistantMessage("a"))
}
