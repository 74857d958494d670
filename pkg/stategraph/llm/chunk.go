package llm

// Chunk is an incremental fragment of a streamed model response.
//
// Chunks form a monoid under Combine: the operation is associative and
// the zero Chunk is the identity. Consumers fold chunks in arrival
// order and never assume a specific field layout beyond this contract,
// so any grouping of fragments yields the same final message.
type Chunk struct {
	// Role is the message role, set on the first non-empty chunk.
	Role string
	// Content is the text fragment.
	Content string
	// Err carries a provider failure; the stream ends after it.
	Err error
}

// Combine appends other to c. Associative: a.Combine(b).Combine(c)
// equals a.Combine(b.Combine(c)). The first non-empty role and the
// first error win.
func (c Chunk) Combine(other Chunk) Chunk {
	out := Chunk{
		Role:    c.Role,
		Content: c.Content + other.Content,
		Err:     c.Err,
	}
	if out.Role == "" {
		out.Role = other.Role
	}
	if out.Err == nil {
		out.Err = other.Err
	}
	return out
}

// Fold combines a finished stream of chunks into a single message.
// Returns the first error encountered, if any.
func Fold(chunks <-chan Chunk) (*Message, error) {
	var acc Chunk
	for chunk := range chunks {
		acc = acc.Combine(chunk)
	}
	if acc.Err != nil {
		return nil, acc.Err
	}
	role := acc.Role
	if role == "" {
		role = RoleAssistant
	}
	return &Message{Role: role, Content: acc.Content}, nil
}
