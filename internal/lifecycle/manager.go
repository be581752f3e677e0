// Package lifecycle keeps the embedding store consistent with bookmark text. It reacts to item
// creation, text changes, and deletion, and can reconcile the store against the full item set.
package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/embedding"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/store"
)

// Manager owns embedding writes. It never holds a store lock while waiting on the embedder.
type Manager struct {
	embedder embedding.Embedder
	store    store.EmbeddingStore
	logger   *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager.
func NewManager(e embedding.Embedder, s store.EmbeddingStore, opts ...ManagerOption) *Manager {
	m := &Manager{embedder: e, store: s, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnItemCreated embeds the item's signature and stores it. On failure nothing is written.
func (m *Manager) OnItemCreated(ctx context.Context, id string, fields models.SignatureFields) error {
	sig := fields.Signature()
	v, err := m.embedder.Embed(ctx, sig)
	if err != nil {
		m.logger.Warn("failed to embed new item", zap.String("id", id), zap.String("kind", embedding.Kind(err)), zap.Error(err))
		return fmt.Errorf("failed to embed item %s: %w", id, err)
	}
	if err := m.store.Put(ctx, id, sig, v); err != nil {
		return fmt.Errorf("failed to store embedding for %s: %w", id, err)
	}
	m.logger.Debug("embedded new item", zap.String("id", id), zap.Int("dims", len(v)))
	return nil
}

// OnItemTextChanged re-embeds the item when its signature differs from the stored one.
// It reports whether a new embedding was written. An unchanged signature costs no provider call.
// On failure the previous entry is left untouched.
func (m *Manager) OnItemTextChanged(ctx context.Context, id string, fields models.SignatureFields) (bool, error) {
	sig := fields.Signature()
	stored, ok, err := m.store.Signature(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to read signature for %s: %w", id, err)
	}
	if ok && stored == sig {
		m.logger.Debug("signature unchanged, keeping embedding", zap.String("id", id))
		return false, nil
	}
	v, err := m.embedder.Embed(ctx, sig)
	if err != nil {
		m.logger.Warn("failed to re-embed item", zap.String("id", id), zap.String("kind", embedding.Kind(err)), zap.Error(err))
		return false, fmt.Errorf("failed to embed item %s: %w", id, err)
	}
	if err := m.store.Put(ctx, id, sig, v); err != nil {
		return false, fmt.Errorf("failed to store embedding for %s: %w", id, err)
	}
	m.logger.Debug("re-embedded item", zap.String("id", id))
	return true, nil
}

// OnItemDeleted removes the item's embedding. Deleting an item without one is not an error.
func (m *Manager) OnItemDeleted(ctx context.Context, id string) error {
	if err := m.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to remove embedding for %s: %w", id, err)
	}
	return nil
}
