package checkpoint

import (
	"context"
	"sync"
)

// MemorySaver is an in-memory checkpoint saver for tests and
// single-process development. Data is lost when the process exits.
type MemorySaver struct {
	mu     sync.RWMutex
	chains map[string][]*Checkpoint // threadID -> append order
	byID   map[string]*Checkpoint   // threadID+"/"+checkpointID
	closed bool
}

// NewMemorySaver creates a new in-memory checkpoint saver.
func NewMemorySaver() *MemorySaver {
	return &MemorySaver{
		chains: make(map[string][]*Checkpoint),
		byID:   make(map[string]*Checkpoint),
	}
}

// Put implements Saver.
func (m *MemorySaver) Put(_ context.Context, cp *Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrSaverClosed
	}

	key := cp.ThreadID + "/" + cp.ID
	if _, exists := m.byID[key]; exists {
		return ErrDuplicateID
	}

	// Round-trip through JSON so the stored copy is isolated from the
	// caller's maps and matches what durable savers would return.
	data, err := cp.Marshal()
	if err != nil {
		return err
	}
	stored, err := Unmarshal(data)
	if err != nil {
		return err
	}

	m.chains[cp.ThreadID] = append(m.chains[cp.ThreadID], stored)
	m.byID[key] = stored
	return nil
}

// Latest implements Saver.
func (m *MemorySaver) Latest(_ context.Context, threadID string) (*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrSaverClosed
	}

	chain := m.chains[threadID]
	if len(chain) == 0 {
		return nil, ErrNotFound
	}
	return copyCheckpoint(chain[len(chain)-1])
}

// Get implements Saver.
func (m *MemorySaver) Get(_ context.Context, threadID, checkpointID string) (*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrSaverClosed
	}

	cp, ok := m.byID[threadID+"/"+checkpointID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCheckpoint(cp)
}

// List implements Saver.
func (m *MemorySaver) List(_ context.Context, threadID string) ([]*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrSaverClosed
	}

	chain := m.chains[threadID]
	out := make([]*Checkpoint, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		cp, err := copyCheckpoint(chain[i])
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// DeleteThread implements Saver.
func (m *MemorySaver) DeleteThread(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrSaverClosed
	}

	for _, cp := range m.chains[threadID] {
		delete(m.byID, threadID+"/"+cp.ID)
	}
	delete(m.chains, threadID)
	return nil
}

// Close implements Saver.
func (m *MemorySaver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.chains = nil
	m.byID = nil
	return nil
}

// Len returns the total number of checkpoints across all threads.
// Useful for testing.
func (m *MemorySaver) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, chain := range m.chains {
		count += len(chain)
	}
	return count
}

// copyCheckpoint returns an isolated copy so callers cannot reach the
// stored maps.
func copyCheckpoint(cp *Checkpoint) (*Checkpoint, error) {
	data, err := cp.Marshal()
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
