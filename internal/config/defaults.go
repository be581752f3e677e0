package config

import "time"

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// DefaultMaxRetries is used when embedding.max_retries is unset.
const DefaultMaxRetries = 3

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/shiori/data/shiori.db"
	}
	if cfg.Storage.BoltPath == "" {
		cfg.Storage.BoltPath = "/usr/local/var/shiori/data/embeddings.bolt"
	}
	if cfg.Storage.EmbeddingBackend == "" {
		cfg.Storage.EmbeddingBackend = "sqlite"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOpenAI
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-ada-002"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "API_KEY"
	}
	if cfg.Embedding.Dimensions == 0 {
		if cfg.Embedding.Provider == ProviderMock {
			cfg.Embedding.Dimensions = 384
		} else {
			cfg.Embedding.Dimensions = 1536
		}
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = Duration(30 * time.Second)
	}
	if cfg.Embedding.InitialBackoff == 0 {
		cfg.Embedding.InitialBackoff = Duration(500 * time.Millisecond)
	}
	if cfg.Embedding.MaxBackoff == 0 {
		cfg.Embedding.MaxBackoff = Duration(8 * time.Second)
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 15
	}
	if cfg.Search.MinLimit == 0 {
		cfg.Search.MinLimit = 1
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 15
	}
}
