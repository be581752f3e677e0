package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/shiori/internal/embedding"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/store"
	"github.com/hyperjump/shiori/internal/vector"
)

// fakeEmbedder maps known texts to fixed vectors and counts calls per text.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string]vector.Vector
	failOn  map[string]error
	calls   map[string]int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		vectors: map[string]vector.Vector{},
		failOn:  map[string]error{},
		calls:   map[string]int{},
	}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (vector.Vector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[text]++
	if err, ok := f.failOn[text]; ok {
		return nil, err
	}
	if v, ok := f.vectors[text]; ok {
		return v.Clone(), nil
	}
	return vector.Vector{1, 0, 0}, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }
func (f *fakeEmbedder) Close() error    { return nil }

func (f *fakeEmbedder) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func fields(title, description string) models.SignatureFields {
	return models.SignatureFields{Title: title, Description: description}
}

func TestManager_OnItemCreated(t *testing.T) {
	ctx := context.Background()
	e := newFakeEmbedder()
	e.vectors["Go Tutorials"] = vector.Vector{0, 1, 0}
	s := store.NewMemoryStore(3)
	m := NewManager(e, s)

	require.NoError(t, m.OnItemCreated(ctx, "a", fields("Go", "Tutorials")))

	sig, ok, err := s.Signature(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Go Tutorials", sig)
	entries, err := s.AllWithEmbedding(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, vector.Vector{0, 1, 0}, entries[0].Vector)
}

func TestManager_OnItemCreated_FailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	e := newFakeEmbedder()
	e.failOn["Go Tutorials"] = fmt.Errorf("%w: 401", embedding.ErrAuthentication)
	s := store.NewMemoryStore(3)
	m := NewManager(e, s)

	err := m.OnItemCreated(ctx, "a", fields("Go", "Tutorials"))
	require.ErrorIs(t, err, embedding.ErrAuthentication)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestManager_OnItemTextChanged_SameSignatureSkipsProvider(t *testing.T) {
	ctx := context.Background()
	e := newFakeEmbedder()
	s := store.NewMemoryStore(3)
	m := NewManager(e, s)
	require.NoError(t, m.OnItemCreated(ctx, "a", fields("Go", "Tutorials")))
	require.Equal(t, 1, e.total())

	changed, err := m.OnItemTextChanged(ctx, "a", fields("Go", "Tutorials"))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, e.total())
}

func TestManager_OnItemTextChanged_NewSignatureReplaces(t *testing.T) {
	ctx := context.Background()
	e := newFakeEmbedder()
	e.vectors["Go Tutorials"] = vector.Vector{1, 0, 0}
	e.vectors["Rust Tutorials"] = vector.Vector{0, 0, 1}
	s := store.NewMemoryStore(3)
	m := NewManager(e, s)
	require.NoError(t, m.OnItemCreated(ctx, "a", fields("Go", "Tutorials")))

	changed, err := m.OnItemTextChanged(ctx, "a", fields("Rust", "Tutorials"))
	require.NoError(t, err)
	assert.True(t, changed)

	sig, _, err := s.Signature(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Rust Tutorials", sig)
	entries, err := s.AllWithEmbedding(ctx)
	require.NoError(t, err)
	assert.Equal(t, vector.Vector{0, 0, 1}, entries[0].Vector)
}

func TestManager_OnItemTextChanged_FailureKeepsOldEntry(t *testing.T) {
	ctx := context.Background()
	e := newFakeEmbedder()
	e.vectors["Go Tutorials"] = vector.Vector{1, 0, 0}
	e.failOn["Rust Tutorials"] = fmt.Errorf("%w: after 4 attempts", embedding.ErrUnavailable)
	s := store.NewMemoryStore(3)
	m := NewManager(e, s)
	require.NoError(t, m.OnItemCreated(ctx, "a", fields("Go", "Tutorials")))

	changed, err := m.OnItemTextChanged(ctx, "a", fields("Rust", "Tutorials"))
	require.ErrorIs(t, err, embedding.ErrUnavailable)
	assert.False(t, changed)

	sig, _, err := s.Signature(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Go Tutorials", sig)
}

func TestManager_OnItemTextChanged_MissingEntryEmbeds(t *testing.T) {
	ctx := context.Background()
	e := newFakeEmbedder()
	s := store.NewMemoryStore(3)
	m := NewManager(e, s)

	changed, err := m.OnItemTextChanged(ctx, "legacy", fields("Old", "Bookmark"))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, e.calls["Old Bookmark"])
}

func TestManager_OnItemDeleted_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(3)
	m := NewManager(newFakeEmbedder(), s)
	require.NoError(t, m.OnItemCreated(ctx, "a", fields("Go", "Tutorials")))

	require.NoError(t, m.OnItemDeleted(ctx, "a"))
	require.NoError(t, m.OnItemDeleted(ctx, "a"))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
