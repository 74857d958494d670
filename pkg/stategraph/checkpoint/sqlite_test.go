package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteSaver(t *testing.T) *SQLiteSaver {
	t.Helper()
	s, err := NewSQLiteSaver(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestSQLiteSaver_PutAndLatest round-trips through the database.
func TestSQLiteSaver_PutAndLatest(t *testing.T) {
	s := newSQLiteSaver(t)

	first := New("t-1", 0, SourceInput, State{"topic": "x"}, []string{"a"})
	second := New("t-1", 1, SourceLoop, State{"topic": "y"}, []string{"b"}).
		WithParent(first.ID).
		WithWrites([]Write{{Node: "a", Channel: "topic"}})

	require.NoError(t, s.Put(ctx(), first))
	require.NoError(t, s.Put(ctx(), second))

	latest, err := s.Latest(ctx(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, "y", latest.Values["topic"])
	assert.Equal(t, []string{"b"}, latest.Next)
	assert.Equal(t, first.ID, latest.ParentID)
	assert.Equal(t, []Write{{Node: "a", Channel: "topic"}}, latest.Writes)
}

// TestSQLiteSaver_Latest_UnknownThread reports ErrNotFound.
func TestSQLiteSaver_Latest_UnknownThread(t *testing.T) {
	s := newSQLiteSaver(t)
	_, err := s.Latest(ctx(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestSQLiteSaver_Get fetches by ID within a thread.
func TestSQLiteSaver_Get(t *testing.T) {
	s := newSQLiteSaver(t)
	cp := New("t-1", 0, SourceLoop, nil, nil)
	require.NoError(t, s.Put(ctx(), cp))

	got, err := s.Get(ctx(), "t-1", cp.ID)
	require.NoError(t, err)
	assert.Equal(t, cp.ID, got.ID)

	_, err = s.Get(ctx(), "t-2", cp.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestSQLiteSaver_Put_DuplicateID enforces append-only storage.
func TestSQLiteSaver_Put_DuplicateID(t *testing.T) {
	s := newSQLiteSaver(t)
	cp := New("t-1", 0, SourceLoop, nil, nil)
	require.NoError(t, s.Put(ctx(), cp))

	err := s.Put(ctx(), cp)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

// TestSQLiteSaver_List_NewestFirst orders by insertion sequence.
func TestSQLiteSaver_List_NewestFirst(t *testing.T) {
	s := newSQLiteSaver(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(ctx(), New("t-1", i, SourceLoop, nil, nil)))
	}

	chain, err := s.List(ctx(), "t-1")
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, 2, chain[0].Step)
	assert.Equal(t, 0, chain[2].Step)
}

// TestSQLiteSaver_List_EmptyThread returns an empty slice.
func TestSQLiteSaver_List_EmptyThread(t *testing.T) {
	s := newSQLiteSaver(t)
	chain, err := s.List(ctx(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, chain)
}

// TestSQLiteSaver_DeleteThread drops one thread only.
func TestSQLiteSaver_DeleteThread(t *testing.T) {
	s := newSQLiteSaver(t)
	require.NoError(t, s.Put(ctx(), New("t-1", 0, SourceLoop, nil, nil)))
	require.NoError(t, s.Put(ctx(), New("t-2", 0, SourceLoop, nil, nil)))

	require.NoError(t, s.DeleteThread(ctx(), "t-1"))
	_, err := s.Latest(ctx(), "t-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Latest(ctx(), "t-2")
	assert.NoError(t, err)
}

// TestSQLiteSaver_Reopen survives process restarts.
func TestSQLiteSaver_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")

	s, err := NewSQLiteSaver(path)
	require.NoError(t, err)
	cp := New("t-1", 0, SourceLoop, State{"k": "v"}, []string{"next"})
	require.NoError(t, s.Put(ctx(), cp))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteSaver(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Latest(ctx(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, cp.ID, got.ID)
	assert.Equal(t, "v", got.Values["k"])
}

// TestSQLiteSaver_Closed rejects operations after Close.
func TestSQLiteSaver_Closed(t *testing.T) {
	s := newSQLiteSaver(t)
	require.NoError(t, s.Close())

	err := s.Put(ctx(), New("t-1", 0, SourceLoop, nil, nil))
	assert.ErrorIs(t, err, ErrSaverClosed)

	// Close is idempotent.
	assert.NoError(t, s.Close())
}
