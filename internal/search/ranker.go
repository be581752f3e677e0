package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/embedding"
	"github.com/hyperjump/shiori/internal/store"
	"github.com/hyperjump/shiori/internal/vector"
)

// Hit is a ranked candidate.
type Hit struct {
	ID    string
	Score float64
}

// Ranker scores every stored embedding against a query embedding and keeps the top K.
// It is stateless across requests and safe for concurrent use.
type Ranker struct {
	embedder embedding.Embedder
	store    store.EmbeddingStore
	scorer   vector.Scorer
	logger   *zap.Logger
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RankerOption {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRanker creates a Ranker. A nil scorer means cosine similarity.
func NewRanker(e embedding.Embedder, s store.EmbeddingStore, scorer vector.Scorer, opts ...RankerOption) *Ranker {
	if scorer == nil {
		scorer = vector.CosineScorer{}
	}
	r := &Ranker{embedder: e, store: s, scorer: scorer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search returns the ids of the k stored items most similar to query, best first.
func (r *Ranker) Search(ctx context.Context, query string, k int) ([]string, error) {
	hits, err := r.Rank(ctx, query, k)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids, nil
}

// Rank is Search with scores.
//
// A blank query returns no hits without calling the embedder. Otherwise the query is embedded
// exactly once; any embedding failure aborts the search. Equal scores keep the store's
// enumeration order.
func (r *Ranker) Rank(ctx context.Context, query string, k int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Hit{}, nil
	}

	qv, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	entries, err := r.store.AllWithEmbedding(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}
	if len(entries) == 0 {
		return []Hit{}, nil
	}

	hits := make([]Hit, len(entries))
	for i, e := range entries {
		score, err := r.scorer.Score(qv, e.Vector)
		if err != nil {
			r.logger.Error("embedding integrity failure during search",
				zap.String("id", e.ID),
				zap.Int("query_dims", len(qv)),
				zap.Int("item_dims", len(e.Vector)),
				zap.Error(err))
			return nil, fmt.Errorf("failed to score %s: %w", e.ID, err)
		}
		hits[i] = Hit{ID: e.ID, Score: score}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if k < 0 {
		k = 0
	}
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}
