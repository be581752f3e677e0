package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/storage"
	"github.com/hyperjump/shiori/internal/store"
	"github.com/hyperjump/shiori/pkg/utils"
)

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Bookmarks        int64  `json:"bookmarks"`
	Embeddings       int    `json:"embeddings"`
	EmbeddingBackend string `json:"embedding_backend"`
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	Dimensions       int    `json:"dimensions"`
	DatabasePath     string `json:"database_path"`
	DiskUsageBytes   int64  `json:"disk_usage_bytes"`
	DiskUsage        string `json:"disk_usage"`
}

// BookmarkCounter reports how many bookmarks are stored.
type BookmarkCounter interface {
	Count(ctx context.Context) (int64, error)
}

// BuildStatus assembles the status report served by the API and printed by the CLI. Disk usage
// is left at zero when it cannot be measured.
func BuildStatus(ctx context.Context, cfg *config.Config, bookmarks BookmarkCounter, embeddings store.EmbeddingStore, logger *zap.Logger) (*StatusResponse, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	count, err := bookmarks.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count bookmarks failed: %w", err)
	}
	embedded, err := embeddings.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count embeddings failed: %w", err)
	}
	status := &StatusResponse{
		Bookmarks:        count,
		Embeddings:       embedded,
		EmbeddingBackend: cfg.Storage.EmbeddingBackend,
		Provider:         cfg.Embedding.Provider,
		Model:            cfg.Embedding.Model,
		Dimensions:       cfg.Embedding.Dimensions,
		DatabasePath:     cfg.Storage.DatabasePath,
	}
	paths := storage.DatabaseFiles(cfg.Storage.DatabasePath)
	if cfg.Storage.EmbeddingBackend == "bolt" {
		paths = append(paths, cfg.Storage.BoltPath)
	}
	if n, err := storage.DiskUsageBytes(paths...); err == nil {
		status.DiskUsageBytes = n
		status.DiskUsage = utils.FormatBytes(n)
	} else {
		logger.Warn("status: disk usage failed", zap.Error(err))
	}
	return status, nil
}
