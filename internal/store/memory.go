package store

import (
	"context"
	"sync"

	"github.com/hyperjump/shiori/internal/vector"
)

// MemoryStore keeps embeddings in memory. Enumeration follows first-insertion order; replacing
// an entry keeps its position. Suitable for tests and ephemeral servers.
type MemoryStore struct {
	dimensions int
	ids        []string
	signatures []string
	vectors    []vector.Vector
	index      map[string]int
	mu         sync.RWMutex
}

// NewMemoryStore creates an empty store. dimensions of 0 accepts vectors of any length.
func NewMemoryStore(dimensions int) *MemoryStore {
	return &MemoryStore{
		dimensions: dimensions,
		ids:        make([]string, 0),
		signatures: make([]string, 0),
		vectors:    make([]vector.Vector, 0),
		index:      make(map[string]int),
	}
}

// Put inserts or replaces the embedding for id.
func (m *MemoryStore) Put(ctx context.Context, id, signature string, v vector.Vector) error {
	if err := checkPut(m.dimensions, v); err != nil {
		return err
	}
	vec := v.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.index[id]; ok {
		m.signatures[i] = signature
		m.vectors[i] = vec
		return nil
	}
	m.index[id] = len(m.ids)
	m.ids = append(m.ids, id)
	m.signatures = append(m.signatures, signature)
	m.vectors = append(m.vectors, vec)
	return nil
}

// Signature returns the stored signature for id.
func (m *MemoryStore) Signature(ctx context.Context, id string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[id]
	if !ok {
		return "", false, nil
	}
	return m.signatures[i], true, nil
}

// AllWithEmbedding returns a copy of every entry.
func (m *MemoryStore) AllWithEmbedding(ctx context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.ids))
	for i, id := range m.ids {
		out[i] = Entry{ID: id, Vector: m.vectors[i].Clone()}
	}
	return out, nil
}

// Remove deletes the entry for id by rebuilding the slices without it.
func (m *MemoryStore) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.index[id]
	if !ok {
		return nil
	}
	m.ids = append(m.ids[:pos], m.ids[pos+1:]...)
	m.signatures = append(m.signatures[:pos], m.signatures[pos+1:]...)
	m.vectors = append(m.vectors[:pos], m.vectors[pos+1:]...)
	delete(m.index, id)
	for i := pos; i < len(m.ids); i++ {
		m.index[m.ids[i]] = i
	}
	return nil
}

// Count returns the number of entries.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids), nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
