package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew_PopulatesMetadata assigns an ID and timestamp.
func TestNew_PopulatesMetadata(t *testing.T) {
	evt := New(TypeRunStart, "t-1", 0)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, TypeRunStart, evt.Type)
	assert.Equal(t, "t-1", evt.ThreadID)
	assert.False(t, evt.Timestamp.IsZero())
}

// TestEvent_WithNode_WithPayload returns modified copies.
func TestEvent_WithNode_WithPayload(t *testing.T) {
	base := New(TypeNodeStart, "t-1", 2)
	evt := base.WithNode("fetch").WithPayload("data")

	assert.Equal(t, "fetch", evt.NodeID)
	assert.Equal(t, "data", evt.Payload)
	assert.Empty(t, base.NodeID)
}

// TestBus_PublishAndSubscribe delivers to all subscribers.
func TestBus_PublishAndSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe()
	bus.Publish(New(TypeRunStart, "t-1", 0))

	select {
	case evt := <-sub.Events():
		assert.Equal(t, TypeRunStart, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

// TestBus_Subscribe_TypeFilter delivers only matching types.
func TestBus_Subscribe_TypeFilter(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe(TypeNodeError)
	bus.Publish(New(TypeNodeStart, "t-1", 0))
	bus.Publish(New(TypeNodeError, "t-1", 0))

	select {
	case evt := <-sub.Events():
		assert.Equal(t, TypeNodeError, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case evt := <-sub.Events():
		t.Fatalf("unexpected event: %s", evt.Type)
	default:
	}
}

// TestBus_Publish_NonBlocking drops events when a subscriber's buffer
// is full instead of stalling the publisher.
func TestBus_Publish_NonBlocking(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var dropped int
	bus.OnDrop = func(evt Event) { dropped++ }

	sub := bus.Subscribe()
	_ = sub

	for i := 0; i < DefaultBufferSize+10; i++ {
		bus.Publish(New(TypeStepStart, "t-1", i))
	}

	assert.Equal(t, 10, dropped)
}

// TestBus_Unsubscribe stops delivery and closes the channel.
func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe()
	sub.Unsubscribe()

	bus.Publish(New(TypeRunStart, "t-1", 0))

	_, open := <-sub.Events()
	assert.False(t, open)
}

// TestBus_Close closes all subscriber channels.
func TestBus_Close(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()

	bus.Close()

	for range sub.Events() {
	}

	// Publish after close is a no-op.
	bus.Publish(New(TypeRunStart, "t-1", 0))
}

// TestBus_MultipleSubscribers fan out every event.
func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub1 := bus.Subscribe()
	sub2 := bus.Subscribe()

	bus.Publish(New(TypeRunComplete, "t-1", 5))

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case evt := <-sub.Events():
			require.Equal(t, TypeRunComplete, evt.Type)
			assert.Equal(t, 5, evt.Step)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}
