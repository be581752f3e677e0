// Package config provides configuration loading and structs for the Shiori server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds paths for the record database and the embedding store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	BoltPath     string `yaml:"bolt_path"`
	// EmbeddingBackend selects the embedding store: "sqlite", "bolt" or "memory".
	EmbeddingBackend string `yaml:"embedding_backend"`
}

// EmbeddingConfig holds embedding provider and gateway settings.
type EmbeddingConfig struct {
	// Provider is "openai" or "mock".
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the credential.
	APIKeyEnv string `yaml:"api_key_env"`
	// APIKey takes precedence over APIKeyEnv. Prefer the environment.
	APIKey            string   `yaml:"api_key,omitempty"`
	Dimensions        int      `yaml:"dimensions"`
	Timeout           Duration `yaml:"timeout"`
	MaxRetries        *int     `yaml:"max_retries"`
	InitialBackoff    Duration `yaml:"initial_backoff"`
	MaxBackoff        Duration `yaml:"max_backoff"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
}

// MaxRetriesOrDefault returns the configured retry count; defaults to 3 when unset.
func (e *EmbeddingConfig) MaxRetriesOrDefault() int {
	if e.MaxRetries != nil {
		return *e.MaxRetries
	}
	return DefaultMaxRetries
}

// SearchConfig holds search limit settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MinLimit     int `yaml:"min_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// FloorLimit raises an explicitly requested limit to MinLimit. A requested 0 asks for the
// minimum rather than the default.
func (c *SearchConfig) FloorLimit(n int) int {
	if n < c.MinLimit {
		return c.MinLimit
	}
	return n
}

// Duration is a time.Duration written in YAML as a string such as "30s" or "500ms".
type Duration time.Duration

// UnmarshalYAML parses the string form with time.ParseDuration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns a Config with every default applied, for running without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed, or if the result is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BoltPath = expandPath(cfg.Storage.BoltPath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values ApplyDefaults cannot repair.
func (c *Config) Validate() error {
	switch c.Storage.EmbeddingBackend {
	case "sqlite", "bolt", "memory":
	default:
		return fmt.Errorf("invalid storage.embedding_backend %q (supported: sqlite, bolt, memory)", c.Storage.EmbeddingBackend)
	}
	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderMock:
	default:
		return fmt.Errorf("invalid embedding.provider %q (supported: openai, mock)", c.Embedding.Provider)
	}
	if c.Embedding.MaxRetriesOrDefault() < 0 {
		return fmt.Errorf("embedding.max_retries must not be negative")
	}
	if c.Embedding.MaxBackoff < c.Embedding.InitialBackoff {
		return fmt.Errorf("embedding.max_backoff must be at least embedding.initial_backoff")
	}
	if c.Search.MinLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.min_limit must not exceed search.max_limit")
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
