package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest installs a tracer provider with an in-memory span
// exporter and points the package tracer at it.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("stategraph")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}

	return exporter, cleanup
}

func TestOtelSpanManager_StartRunSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	ctx, span := sm.StartRunSpan(context.Background(), "t-run")
	require.NotNil(t, span)
	assert.NotNil(t, ctx)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	s := spans[0]
	assert.Equal(t, "stategraph.run", s.Name)
	assert.False(t, s.Parent.IsValid(), "run span is a root span")

	var threadID string
	for _, attr := range s.Attributes {
		if attr.Key == "thread.id" {
			threadID = attr.Value.AsString()
		}
	}
	assert.Equal(t, "t-run", threadID)
}

func TestOtelSpanManager_StartStepSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	runCtx, runSpan := sm.StartRunSpan(context.Background(), "t-run")
	_, stepSpan := sm.StartStepSpan(runCtx, 2, []string{"plan", "act"})
	stepSpan.End()
	runSpan.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	var stepData *tracetest.SpanStub
	for i := range spans {
		if spans[i].Name == "stategraph.step.2" {
			stepData = &spans[i]
			break
		}
	}
	require.NotNil(t, stepData)
	assert.True(t, stepData.Parent.IsValid(), "step span is a child of the run span")

	var step int64
	var frontier []string
	for _, attr := range stepData.Attributes {
		switch attr.Key {
		case "step":
			step = attr.Value.AsInt64()
		case "frontier":
			frontier = attr.Value.AsStringSlice()
		}
	}
	assert.Equal(t, int64(2), step)
	assert.Equal(t, []string{"plan", "act"}, frontier)
}

func TestOtelSpanManager_StartNodeSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	runCtx, runSpan := sm.StartRunSpan(context.Background(), "t-run")
	stepCtx, stepSpan := sm.StartStepSpan(runCtx, 0, []string{"plan"})
	_, nodeSpan := sm.StartNodeSpan(stepCtx, "plan")
	nodeSpan.End()
	stepSpan.End()
	runSpan.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)

	var nodeData *tracetest.SpanStub
	for i := range spans {
		if spans[i].Name == "stategraph.node.plan" {
			nodeData = &spans[i]
			break
		}
	}
	require.NotNil(t, nodeData)
	assert.True(t, nodeData.Parent.IsValid(), "node span is a child of the step span")

	var nodeID string
	for _, attr := range nodeData.Attributes {
		if attr.Key == "node.id" {
			nodeID = attr.Value.AsString()
		}
	}
	assert.Equal(t, "plan", nodeID)
}

func TestOtelSpanManager_EndSpanWithError(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	t.Run("sets OK status for nil error", func(t *testing.T) {
		_, span := sm.StartRunSpan(context.Background(), "t-ok")

		sm.EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
		assert.Equal(t, "", spans[0].Status.Description)
	})

	t.Run("sets Error status and records error", func(t *testing.T) {
		exporter.Reset()

		_, span := sm.StartRunSpan(context.Background(), "t-err")

		sm.EndSpanWithError(span, errors.New("something went wrong"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		s := spans[0]
		assert.Equal(t, codes.Error, s.Status.Code)
		assert.Equal(t, "something went wrong", s.Status.Description)

		found := false
		for _, ev := range s.Events {
			if ev.Name == "exception" {
				found = true
			}
		}
		assert.True(t, found, "Expected exception event")
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			sm.EndSpanWithError(nil, nil)
			sm.EndSpanWithError(nil, errors.New("boom"))
		})
	})
}

func TestOtelSpanManager_AddSpanEvent(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	t.Run("adds event to current span", func(t *testing.T) {
		ctx, span := sm.StartRunSpan(context.Background(), "t-ev")

		sm.AddSpanEvent(ctx, "checkpoint.saved",
			attribute.String("checkpoint_id", "cp-1"),
			attribute.Int64("size_bytes", 1024),
		)
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		require.NotEmpty(t, spans[0].Events)

		found := false
		for _, ev := range spans[0].Events {
			if ev.Name != "checkpoint.saved" {
				continue
			}
			found = true
			var cpID string
			var size int64
			for _, attr := range ev.Attributes {
				switch attr.Key {
				case "checkpoint_id":
					cpID = attr.Value.AsString()
				case "size_bytes":
					size = attr.Value.AsInt64()
				}
			}
			assert.Equal(t, "cp-1", cpID)
			assert.Equal(t, int64(1024), size)
		}
		assert.True(t, found, "Expected to find checkpoint.saved event")
	})

	t.Run("no panic without a current span", func(t *testing.T) {
		assert.NotPanics(t, func() {
			sm.AddSpanEvent(context.Background(), "orphan")
		})
	})
}
