package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/bookmarks"
	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/embedding"
	"github.com/hyperjump/shiori/internal/lifecycle"
	"github.com/hyperjump/shiori/internal/search"
	"github.com/hyperjump/shiori/internal/storage"
	"github.com/hyperjump/shiori/internal/store"
)

// Components holds the wired application services.
type Components struct {
	Storage    *storage.SQLiteStorage
	Embedder   embedding.Embedder
	Embeddings store.EmbeddingStore
	Bookmarks  *bookmarks.Service
	Engine     *search.Engine
}

// Close releases the stores and the provider. The embedding store goes first because the
// SQLite backend shares the bookmark database handle.
func (c *Components) Close() {
	if c.Embeddings != nil {
		_ = c.Embeddings.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embeddings, err := store.New(cfg.Storage.EmbeddingBackend, store.Options{
		Dimensions:   cfg.Embedding.Dimensions,
		DatabasePath: cfg.Storage.DatabasePath,
		BoltPath:     cfg.Storage.BoltPath,
		DB:           st.DB(),
		Logger:       logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to initialize embedding store: %w", err)
	}

	gateway := newGateway(&cfg.Embedding, logger)
	logger.Info("embedding provider initialized",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", gateway.Dimensions()),
		zap.String("backend", cfg.Storage.EmbeddingBackend),
	)

	manager := lifecycle.NewManager(gateway, embeddings, lifecycle.WithLogger(logger))
	svc := bookmarks.NewService(st, manager, bookmarks.WithLogger(logger))
	ranker := search.NewRanker(gateway, embeddings, nil, search.WithLogger(logger))
	engine := search.NewEngine(ranker, svc, &cfg.Search, logger)

	return &Components{
		Storage:    st,
		Embedder:   gateway,
		Embeddings: embeddings,
		Bookmarks:  svc,
		Engine:     engine,
	}, nil
}

// newGateway builds the configured provider wrapped with retries and rate limiting.
func newGateway(cfg *config.EmbeddingConfig, logger *zap.Logger) *embedding.Gateway {
	var provider embedding.Embedder
	switch cfg.Provider {
	case config.ProviderMock:
		provider = embedding.NewMockEmbedder(cfg.Dimensions)
	default:
		key := cfg.ResolveAPIKey()
		if key == "" {
			logger.Warn("no embedding API key configured; search and bookmark writes will fail",
				zap.String("env", cfg.APIKeyEnv))
		}
		provider = embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:     key,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout.Std(),
		})
	}
	burst := int(cfg.RequestsPerSecond)
	return embedding.NewGateway(provider,
		embedding.WithLogger(logger),
		embedding.WithDimensions(cfg.Dimensions),
		embedding.WithRetry(cfg.MaxRetriesOrDefault(), cfg.InitialBackoff.Std(), cfg.MaxBackoff.Std()),
		embedding.WithRateLimit(cfg.RequestsPerSecond, burst),
	)
}
