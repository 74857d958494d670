package stategraph

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/stategraph/pkg/stategraph/checkpoint"
	"github.com/randalmurphal/stategraph/pkg/stategraph/event"
	"github.com/randalmurphal/stategraph/pkg/stategraph/observability"
)

// Invoke executes the graph to completion and returns the final state.
//
// input is a partial delta applied to the thread's state through the
// normal reducers before the first superstep. Passing nil input resumes
// the thread's latest (or pinned) checkpoint from its recorded
// frontier; nil input without a checkpoint to resume is an error.
//
// On an interrupt the returned error is an *Interrupt carrying the
// resumption token and the returned state is the committed state at the
// pause point. On failure the last committed checkpoint is intact and
// the run can be resumed from it.
func (cg *CompiledGraph) Invoke(ctx Context, input State, opts ...RunOption) (State, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return cg.run(ctx, input, &cfg, nil)
}

// nodeWrite pairs a node with the delta it returned in one superstep.
type nodeWrite struct {
	node  string
	delta State
}

// run is the scheduler shared by Invoke and Stream. emit, when non-nil,
// receives one item per committed superstep (plus granular events in
// StreamEvents mode) and must not block forever.
func (cg *CompiledGraph) run(ctx Context, input State, cfg *runConfig, emit func(StreamItem)) (result State, runErr error) {
	if cfg.saver != nil && cfg.threadID == "" {
		return nil, ErrThreadRequired
	}
	if cfg.threadID == "" {
		cfg.threadID = uuid.NewString()
	}

	ec := asExecution(ctx).forRun(cfg.threadID, cfg.saver)

	state, frontier, step, parentID, resuming, err := cg.prepare(ec, input, cfg)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	observability.LogRunStart(ec.logger, cfg.threadID, frontier)
	cg.publish(cfg, event.New(event.TypeRunStart, cfg.threadID, step).WithPayload(frontier))

	var runCtx context.Context = ec
	var runSpan trace.Span
	if cfg.tracingEnabled {
		runCtx, runSpan = cfg.spans.StartRunSpan(ec, cfg.threadID)
		defer func() {
			if IsInterrupt(runErr) {
				cfg.spans.EndSpanWithError(runSpan, nil)
			} else {
				cfg.spans.EndSpanWithError(runSpan, runErr)
			}
		}()
	}

	defer func() {
		duration := time.Since(startTime)
		cfg.metrics.RecordRun(ec, runErr == nil, duration)
		durationMs := float64(duration.Milliseconds())
		switch {
		case runErr == nil:
			observability.LogRunComplete(ec.logger, cfg.threadID, durationMs, step)
			cg.publish(cfg, event.New(event.TypeRunComplete, cfg.threadID, step).WithPayload(result))
		case IsInterrupt(runErr):
			intr := runErr.(*Interrupt)
			observability.LogRunInterrupted(ec.logger, cfg.threadID, firstOrEmpty(intr.Nodes), intr.Step)
			cg.publish(cfg, event.New(event.TypeRunInterrupted, cfg.threadID, intr.Step).WithPayload(intr.Nodes))
		default:
			observability.LogRunError(ec.logger, cfg.threadID, runErr, durationMs, step)
			cg.publish(cfg, event.New(event.TypeRunError, cfg.threadID, step).WithPayload(runErr.Error()))
		}
	}()

	executed := 0
	for {
		active := withoutEnd(frontier)
		if len(active) == 0 {
			return state, nil
		}

		// Before-mode interrupt points pause after the previous merge,
		// before the named node runs. A resumed run skips the check for
		// its starting frontier so it proceeds as if never interrupted.
		if !resuming {
			if hit := intersect(active, cg.interruptBefore); len(hit) > 0 {
				return state, &Interrupt{
					ThreadID:     cfg.threadID,
					CheckpointID: parentID,
					Nodes:        hit,
					Step:         step,
					Before:       true,
					State:        state,
				}
			}
		}
		resuming = false

		if executed >= cfg.recursionLimit {
			return state, &RecursionError{
				Limit:    cfg.recursionLimit,
				Frontier: active,
				State:    state,
			}
		}

		// Ticks are the atomic unit of cancellation: check between, not
		// during, supersteps.
		select {
		case <-ec.Done():
			return state, &CancellationError{
				Frontier: active,
				State:    state,
				Cause:    ec.Err(),
			}
		default:
		}

		stepStart := time.Now()
		observability.LogStepStart(ec.logger, step, active)
		if cfg.streamMode == StreamEvents {
			cg.emitEvent(cfg, emit, event.New(event.TypeStepStart, cfg.threadID, step).WithPayload(active))
		}

		stepCtx := runCtx
		var stepSpan trace.Span
		if cfg.tracingEnabled {
			stepCtx, stepSpan = cfg.spans.StartStepSpan(runCtx, step, active)
		}

		writes, stepErr := cg.runStep(ec, stepCtx, active, state, cfg, step, emit)

		stepDuration := time.Since(stepStart)
		cfg.metrics.RecordStep(ec, stepErr == nil, stepDuration, len(active))
		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(stepSpan, stepErr)
		}

		if stepErr != nil {
			// The whole tick is discarded: no deltas merge, the last
			// committed checkpoint stands.
			return state, stepErr
		}

		state, frontier, parentID, runErr = cg.commitStep(ec, cfg, state, active, writes, step, parentID, emit)
		if runErr != nil {
			return state, runErr
		}

		observability.LogStepComplete(ec.logger, step, float64(stepDuration.Milliseconds()), len(writes))

		if hit := intersect(active, cg.interruptAfter); len(hit) > 0 {
			return state, &Interrupt{
				ThreadID:     cfg.threadID,
				CheckpointID: parentID,
				Nodes:        hit,
				Step:         step,
				Before:       false,
				State:        state,
			}
		}

		step++
		executed++
	}
}

// prepare resolves the starting state and frontier from the input and,
// when a saver is configured, the thread's checkpoint chain.
func (cg *CompiledGraph) prepare(ec *executionContext, input State, cfg *runConfig) (state State, frontier []string, step int, parentID string, resuming bool, err error) {
	var parent *checkpoint.Checkpoint

	if cfg.saver != nil {
		parent, err = cg.loadCheckpoint(ec, cfg)
		if err != nil {
			return nil, nil, 0, "", false, err
		}
	}

	switch {
	case parent == nil && input == nil:
		return nil, nil, 0, "", false, ErrInputRequired

	case parent == nil:
		// Fresh thread: defaults, then the input delta, then an input
		// checkpoint so the pre-run state is itself replayable.
		state = cg.schema.initialState()
		writes := applyInput(cg.schema, state, input)
		frontier = cg.sortFrontier(cg.entries)
		step = 0
		if cfg.saver != nil {
			cp := checkpoint.New(cfg.threadID, -1, checkpoint.SourceInput, state, frontier).WithWrites(writes)
			if err := cg.putCheckpoint(ec, cfg, cp); err != nil {
				return nil, nil, 0, "", false, err
			}
			parentID = cp.ID
		}
		return state, frontier, step, parentID, false, nil

	case input == nil:
		// Resume: the recorded frontier is the starting frontier.
		state = State(parent.Values)
		if state == nil {
			state = State{}
		}
		return state, cg.sortFrontier(parent.Next), parent.Step + 1, parent.ID, true, nil

	default:
		// Continuation: new input on an existing thread starts a new
		// pass from the entry nodes with the inherited state.
		state = State(parent.Values).Clone()
		writes := applyInput(cg.schema, state, input)
		frontier = cg.sortFrontier(cg.entries)
		step = parent.Step + 1
		cp := checkpoint.New(cfg.threadID, step, checkpoint.SourceInput, state, frontier).
			WithParent(parent.ID).
			WithWrites(writes)
		if err := cg.putCheckpoint(ec, cfg, cp); err != nil {
			return nil, nil, 0, "", false, err
		}
		return state, frontier, step + 1, cp.ID, false, nil
	}
}

// loadCheckpoint fetches the pinned or latest checkpoint for the thread.
// A missing latest is not an error (fresh thread); a missing pinned
// checkpoint is.
func (cg *CompiledGraph) loadCheckpoint(ec *executionContext, cfg *runConfig) (*checkpoint.Checkpoint, error) {
	if cfg.checkpointID != "" {
		cp, err := cfg.saver.Get(ec, cfg.threadID, cfg.checkpointID)
		if err != nil {
			return nil, &CheckpointError{ThreadID: cfg.threadID, Op: "get", Err: err}
		}
		return cp, nil
	}

	cp, err := cfg.saver.Latest(ec, cfg.threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &CheckpointError{ThreadID: cfg.threadID, Op: "get", Err: err}
	}
	return cp, nil
}

// runStep executes all frontier nodes concurrently against a
// read-consistent snapshot and collects their deltas. Any node error
// aborts the tick; the first failure in registration order wins so
// error reporting is deterministic.
func (cg *CompiledGraph) runStep(ec *executionContext, stepCtx context.Context, active []string, state State, cfg *runConfig, step int, emit func(StreamItem)) ([]nodeWrite, error) {
	writes := make([]nodeWrite, len(active))
	taskErrs := make([]error, len(active))

	var wg sync.WaitGroup
	for i, id := range active {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			writes[i].node = id
			writes[i].delta, taskErrs[i] = cg.runNode(ec, stepCtx, id, state.Clone(), cfg, step, emit)
		}(i, id)
	}
	wg.Wait()

	for i := range active {
		if taskErrs[i] != nil {
			return nil, taskErrs[i]
		}
	}
	return writes, nil
}

// runNode executes one node task with panic recovery and per-node
// observability.
func (cg *CompiledGraph) runNode(ec *executionContext, stepCtx context.Context, id string, snapshot State, cfg *runConfig, step int, emit func(StreamItem)) (delta State, err error) {
	fn, exists := cg.getNode(id)
	if !exists {
		// Unreachable if compilation succeeded.
		return nil, &NodeError{NodeID: id, Step: step, Err: fmt.Errorf("%w: %s", ErrNodeNotFound, id)}
	}

	nodeCtx := ec.forNode(id, step)

	observability.LogNodeStart(nodeCtx.logger, id, step)
	if cfg.streamMode == StreamEvents {
		cg.emitEvent(cfg, emit, event.New(event.TypeNodeStart, cfg.threadID, step).WithNode(id))
	} else {
		cg.publish(cfg, event.New(event.TypeNodeStart, cfg.threadID, step).WithNode(id))
	}

	var nodeSpan trace.Span
	if cfg.tracingEnabled {
		_, nodeSpan = cfg.spans.StartNodeSpan(stepCtx, id)
	}

	nodeStart := time.Now()

	defer func() {
		if r := recover(); r != nil {
			delta = nil
			err = &NodeError{NodeID: id, Step: step, Err: &PanicError{
				NodeID: id,
				Value:  r,
				Stack:  string(debug.Stack()),
			}}
		}

		nodeDuration := time.Since(nodeStart)
		cfg.metrics.RecordNodeTask(ec, id, nodeDuration, err)
		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(nodeSpan, err)
		}

		if err != nil {
			observability.LogNodeError(nodeCtx.logger, id, err)
			cg.publish(cfg, event.New(event.TypeNodeError, cfg.threadID, step).WithNode(id).WithPayload(err.Error()))
		} else {
			observability.LogNodeComplete(nodeCtx.logger, id, float64(nodeDuration.Milliseconds()))
			evt := event.New(event.TypeNodeComplete, cfg.threadID, step).WithNode(id).WithPayload(delta)
			if cfg.streamMode == StreamEvents {
				cg.emitEvent(cfg, emit, evt)
			} else {
				cg.publish(cfg, evt)
			}
		}
	}()

	out, nodeErr := fn(nodeCtx, snapshot)
	if nodeErr != nil {
		return nil, &NodeError{NodeID: id, Step: step, Err: nodeErr}
	}
	return out, nil
}

// commitStep merges the tick's writes through the per-channel reducers,
// computes the next frontier, and persists a checkpoint.
func (cg *CompiledGraph) commitStep(ec *executionContext, cfg *runConfig, state State, active []string, writes []nodeWrite, step int, parentID string, emit func(StreamItem)) (State, []string, string, error) {
	// Merge phase: single-threaded, one reducer application per write,
	// nodes in registration order, channels sorted within a node.
	next := state.Clone()
	var provenance []checkpoint.Write
	updates := make(map[string]State, len(writes))

	for _, w := range writes {
		if w.delta == nil {
			continue
		}
		updates[w.node] = w.delta
		for _, channel := range sortedChannels(w.delta) {
			cg.schema.reduce(next, channel, w.delta[channel])
			provenance = append(provenance, checkpoint.Write{Node: w.node, Channel: channel})
		}
	}

	frontier, err := cg.nextFrontier(ec, next, active, step)
	if err != nil {
		return state, nil, parentID, err
	}

	if cfg.saver != nil {
		cp := checkpoint.New(cfg.threadID, step, checkpoint.SourceLoop, next, frontier).
			WithParent(parentID).
			WithWrites(provenance)
		if err := cg.putCheckpoint(ec, cfg, cp); err != nil {
			return state, nil, parentID, err
		}
		parentID = cp.ID
	}

	if emit != nil {
		switch cfg.streamMode {
		case StreamValues:
			emit(StreamItem{Step: step, Values: next.Clone()})
		case StreamUpdates:
			emit(StreamItem{Step: step, Updates: updates})
		case StreamEvents:
			cg.emitEvent(cfg, emit, event.New(event.TypeStepCommit, cfg.threadID, step).WithPayload(next.Clone()))
		}
	}

	return next, frontier, parentID, nil
}

// nextFrontier evaluates plain edges and routers of the executed nodes
// against the post-merge state. The result is deduplicated and ordered
// by node registration for deterministic scheduling.
func (cg *CompiledGraph) nextFrontier(ec *executionContext, state State, executed []string, step int) ([]string, error) {
	var frontier []string
	seen := make(map[string]bool)

	add := func(target string) {
		if !seen[target] {
			seen[target] = true
			frontier = append(frontier, target)
		}
	}

	for _, id := range executed {
		for _, target := range cg.edges[id] {
			add(target)
		}

		ce, ok := cg.branches[id]
		if !ok {
			continue
		}

		routerCtx := ec.forNode(id, step)
		labels := ce.router(routerCtx, state)
		if len(labels) == 0 {
			return nil, &RouterError{FromNode: id, Returned: labels, Err: ErrInvalidRouterResult}
		}
		for _, label := range labels {
			target, ok := ce.pathMap[label]
			if !ok {
				return nil, &RouterError{FromNode: id, Returned: labels, Err: fmt.Errorf("%w: %q", ErrUnknownBranch, label)}
			}
			add(target)
		}
	}

	return cg.sortFrontier(frontier), nil
}

// putCheckpoint persists a checkpoint. Persistence failures are fatal:
// a tick either fully commits (state and checkpoint) or fully fails.
func (cg *CompiledGraph) putCheckpoint(ec *executionContext, cfg *runConfig, cp *checkpoint.Checkpoint) error {
	if err := cfg.saver.Put(ec, cp); err != nil {
		observability.LogCheckpointError(ec.logger, cfg.threadID, "put", err)
		return &CheckpointError{ThreadID: cfg.threadID, Op: "put", Err: err}
	}

	observability.LogCheckpoint(ec.logger, cp.ID, cp.Step)
	if cfg.metricsEnabled {
		// Marshal memoizes, so a saver that already encoded the
		// checkpoint makes this a cache read.
		if data, err := cp.Marshal(); err == nil {
			cfg.metrics.RecordCheckpoint(ec, cfg.threadID, int64(len(data)))
		}
	}
	cg.publish(cfg, event.New(event.TypeCheckpoint, cfg.threadID, cp.Step).WithPayload(cp.ID))
	return nil
}

// publish sends an event to the configured bus, if any.
func (cg *CompiledGraph) publish(cfg *runConfig, evt event.Event) {
	if cfg.bus != nil {
		cfg.bus.Publish(evt)
	}
}

// emitEvent delivers an event both to the stream (StreamEvents mode)
// and the bus.
func (cg *CompiledGraph) emitEvent(cfg *runConfig, emit func(StreamItem), evt event.Event) {
	cg.publish(cfg, evt)
	if emit != nil {
		e := evt
		emit(StreamItem{Step: evt.Step, Event: &e})
	}
}

// applyInput folds the caller's input delta into the state as writes
// from START, sorted by channel for determinism.
func applyInput(schema *Schema, state State, input State) []checkpoint.Write {
	var writes []checkpoint.Write
	for _, channel := range sortedChannels(input) {
		schema.reduce(state, channel, input[channel])
		writes = append(writes, checkpoint.Write{Node: START, Channel: channel})
	}
	return writes
}

// sortedChannels returns a delta's channel names in sorted order.
func sortedChannels(delta State) []string {
	channels := make([]string, 0, len(delta))
	for channel := range delta {
		channels = append(channels, channel)
	}
	sort.Strings(channels)
	return channels
}

// withoutEnd filters END out of a frontier.
func withoutEnd(frontier []string) []string {
	var out []string
	for _, id := range frontier {
		if id != END {
			out = append(out, id)
		}
	}
	return out
}

// intersect returns the members of frontier present in set, preserving
// frontier order.
func intersect(frontier []string, set map[string]bool) []string {
	var out []string
	for _, id := range frontier {
		if set[id] {
			out = append(out, id)
		}
	}
	return out
}

func firstOrEmpty(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
