// Package search provides semantic bookmark search: ranking stored embeddings against a query
// and resolving the winners to bookmark records.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/storage"
)

// BookmarkGetter loads bookmark records by id.
type BookmarkGetter interface {
	GetBookmark(ctx context.Context, id string) (*models.Bookmark, error)
}

// Engine runs semantic search and returns bookmark-level results.
type Engine struct {
	ranker  *Ranker
	records BookmarkGetter
	config  *config.SearchConfig
	logger  *zap.Logger
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(ranker *Ranker, records BookmarkGetter, cfg *config.SearchConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{ranker: ranker, records: records, config: cfg, logger: logger}
}

// Search normalizes the query, ranks, and loads the matching bookmarks in ranked order.
// Ids whose record has disappeared since ranking are skipped.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	resp := &models.SearchResponse{Results: make([]*models.Bookmark, 0)}

	ok := query.Normalize(e.config.DefaultLimit, e.config.MinLimit, e.config.MaxLimit)
	resp.Query = query.Query
	if !ok {
		return resp, nil
	}

	ids, err := e.ranker.Search(ctx, query.Query, query.Limit)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		b, err := e.records.GetBookmark(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			e.logger.Debug("ranked bookmark no longer exists", zap.String("id", id))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load bookmark %s: %w", id, err)
		}
		resp.Results = append(resp.Results, b)
	}
	resp.Total = len(resp.Results)
	resp.QueryTime = time.Since(startTime).Milliseconds()
	return resp, nil
}
