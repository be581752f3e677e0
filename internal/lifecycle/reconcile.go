package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/embedding"
	"github.com/hyperjump/shiori/internal/models"
)

// Item is one record as seen by Reconcile.
type Item struct {
	ID     string
	Fields models.SignatureFields
}

// ReconcileStats summarizes a Reconcile run.
type ReconcileStats struct {
	Embedded  int `json:"embedded"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
	Removed   int `json:"removed"`
}

// Reconcile brings the store in line with items. Items whose embedding is missing, unreadable,
// or computed from a different signature are re-embedded (every item when force is set), and
// store entries whose id is not among items are removed.
//
// A provider that is unavailable or unconfigured aborts the run; other per-item embedding failures
// are counted and skipped. progress, when non-nil, is called once per item.
func (m *Manager) Reconcile(ctx context.Context, items []Item, force bool, progress func()) (ReconcileStats, error) {
	var stats ReconcileStats

	entries, err := m.store.AllWithEmbedding(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list embeddings: %w", err)
	}
	healthy := make(map[string]bool, len(entries))
	for _, e := range entries {
		healthy[e.ID] = true
	}

	live := make(map[string]bool, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		live[item.ID] = true

		var changed bool
		if force || !healthy[item.ID] {
			err = m.reembed(ctx, item)
			changed = err == nil
		} else {
			changed, err = m.OnItemTextChanged(ctx, item.ID, item.Fields)
		}
		if progress != nil {
			progress()
		}
		switch {
		case err != nil && embedding.IsUnavailable(err):
			return stats, err
		case err != nil:
			stats.Failed++
			m.logger.Warn("skipping item during reconcile", zap.String("id", item.ID), zap.Error(err))
		case changed:
			stats.Embedded++
		default:
			stats.Unchanged++
		}
	}

	for _, e := range entries {
		if live[e.ID] {
			continue
		}
		if err := m.OnItemDeleted(ctx, e.ID); err != nil {
			return stats, err
		}
		stats.Removed++
	}

	m.logger.Info("reconcile finished",
		zap.Int("items", len(items)),
		zap.Int("embedded", stats.Embedded),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("failed", stats.Failed),
		zap.Int("removed", stats.Removed))
	return stats, nil
}

func (m *Manager) reembed(ctx context.Context, item Item) error {
	sig := item.Fields.Signature()
	v, err := m.embedder.Embed(ctx, sig)
	if err != nil {
		return fmt.Errorf("failed to embed item %s: %w", item.ID, err)
	}
	if err := m.store.Put(ctx, item.ID, sig, v); err != nil {
		return fmt.Errorf("failed to store embedding for %s: %w", item.ID, err)
	}
	return nil
}
