package stategraph

import (
	"context"
	"sync"
)

// Shared helpers for engine tests.

// testContext returns a background execution context.
func testContext() Context {
	return NewContext(context.Background())
}

// chatSchema is the schema most scenarios run over: an accumulating
// message log plus a couple of last-write channels.
func chatSchema() *Schema {
	return NewSchema().
		AddChannel("messages", Append(nil)).
		AddChannel("topic", LastValue()).
		AddChannel("draft", OverwriteIfPresent())
}

// appendNode returns a node writing its own name to the messages channel.
func appendNode(name string) NodeFunc {
	return func(ctx Context, s State) (State, error) {
		return State{"messages": []any{name}}, nil
	}
}

// tracker records node executions across goroutines.
type tracker struct {
	mu  sync.Mutex
	ran []string
}

func (t *tracker) record(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ran = append(t.ran, name)
}

func (t *tracker) names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.ran...)
}

func (t *tracker) count(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.ran {
		if r == name {
			n++
		}
	}
	return n
}

// trackingNode records its execution and writes its name to messages.
func trackingNode(name string, tr *tracker) NodeFunc {
	return func(ctx Context, s State) (State, error) {
		tr.record(name)
		return State{"messages": []any{name}}, nil
	}
}

// failingNode returns the given error.
func failingNode(err error) NodeFunc {
	return func(ctx Context, s State) (State, error) {
		return nil, err
	}
}

// panicNode panics with the given value.
func panicNode(value any) NodeFunc {
	return func(ctx Context, s State) (State, error) {
		panic(value)
	}
}

// noopNode returns no writes.
func noopNode(ctx Context, s State) (State, error) {
	return nil, nil
}

// linearGraph builds a -> b -> END over the chat schema.
func linearGraph() *Graph {
	return New(chatSchema()).
		AddNode("a", appendNode("a")).
		AddNode("b", appendNode("b")).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a")
}
