// Package llm provides the narrow chat-model contract consumed by graph
// nodes: ordered role-tagged messages in, a message or a stream of
// associatively combinable chunks out. The engine is agnostic to the
// provider behind it.
package llm

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat completion request.
type Request struct {
	// Model overrides the client's default model when non-empty.
	Model string
	// Messages is the ordered conversation history.
	Messages []Message
	// Temperature, when non-nil, overrides the provider default.
	Temperature *float64
	// MaxTokens, when non-nil, caps the completion length.
	MaxTokens *int
}

// Client is the chat-model contract node functions consume.
// Implementations must be safe for concurrent use: sibling nodes in one
// superstep may call the client in parallel.
type Client interface {
	// Complete returns the model's full response message.
	Complete(ctx context.Context, req Request) (*Message, error)

	// Stream returns incremental response chunks. The channel is closed
	// when the response is complete; a chunk with a non-nil Err ends the
	// stream. Chunks combine associatively (see Chunk.Combine), so the
	// caller may fold them in arrival order.
	Stream(ctx context.Context, req Request) (<-chan Chunk, error)
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
