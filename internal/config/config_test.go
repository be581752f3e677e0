package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
embedding:
  timeout: "10s"
  initial_backoff: "250ms"
  max_backoff: "4s"
  max_retries: 0
  requests_per_second: 2.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("Addr() = %s", cfg.Server.Addr())
	}
	if cfg.Storage.DatabasePath == "" || !filepath.IsAbs(cfg.Storage.DatabasePath) {
		t.Errorf("database_path should be expanded, got %q", cfg.Storage.DatabasePath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Embedding.Timeout.Std() != 10*time.Second {
		t.Errorf("timeout = %v", cfg.Embedding.Timeout.Std())
	}
	if cfg.Embedding.InitialBackoff.Std() != 250*time.Millisecond || cfg.Embedding.MaxBackoff.Std() != 4*time.Second {
		t.Errorf("backoff = %v..%v", cfg.Embedding.InitialBackoff.Std(), cfg.Embedding.MaxBackoff.Std())
	}
	if cfg.Embedding.MaxRetriesOrDefault() != 0 {
		t.Errorf("explicit max_retries: 0 must be kept, got %d", cfg.Embedding.MaxRetriesOrDefault())
	}
	if cfg.Embedding.RequestsPerSecond != 2.5 {
		t.Errorf("requests_per_second = %v", cfg.Embedding.RequestsPerSecond)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	path := writeConfig(t, `
debug: true
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/shiori.db"
  bolt_path: "./data/embeddings.bolt"
  embedding_backend: bolt
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "shiori.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "embeddings.bolt"); cfg.Storage.BoltPath != want {
		t.Errorf("bolt_path = %s, want %s", cfg.Storage.BoltPath, want)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad duration", "embedding:\n  timeout: \"soon\"\n", "invalid duration"},
		{"unknown backend", "storage:\n  embedding_backend: faiss\n", "embedding_backend"},
		{"unknown provider", "embedding:\n  provider: onnx\n", "embedding.provider"},
		{"negative retries", "embedding:\n  max_retries: -1\n", "max_retries"},
		{"backoff order", "embedding:\n  initial_backoff: 10s\n  max_backoff: 1s\n", "max_backoff"},
		{"limit order", "search:\n  min_limit: 20\n  max_limit: 15\n", "min_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Storage.EmbeddingBackend != "sqlite" {
		t.Errorf("default backend: got %s", cfg.Storage.EmbeddingBackend)
	}
	if cfg.Embedding.Provider != ProviderOpenAI || cfg.Embedding.Model != "text-embedding-ada-002" {
		t.Errorf("default provider/model: got %s/%s", cfg.Embedding.Provider, cfg.Embedding.Model)
	}
	if cfg.Embedding.APIKeyEnv != "API_KEY" {
		t.Errorf("default api_key_env: got %s", cfg.Embedding.APIKeyEnv)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("default dimensions: got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.MaxRetriesOrDefault() != DefaultMaxRetries {
		t.Errorf("default max retries: got %d", cfg.Embedding.MaxRetriesOrDefault())
	}
	if cfg.Search.DefaultLimit != 15 || cfg.Search.MinLimit != 1 || cfg.Search.MaxLimit != 15 {
		t.Errorf("default search limits: got %+v", cfg.Search)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_mockDimensions(t *testing.T) {
	cfg := &Config{Embedding: EmbeddingConfig{Provider: ProviderMock}}
	ApplyDefaults(cfg)
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("mock dimensions: got %d", cfg.Embedding.Dimensions)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := Default()
	cfg.Server.Port = 9090
	cfg.Embedding.Timeout = Duration(45 * time.Second)
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Embedding.Timeout.Std() != 45*time.Second {
		t.Errorf("loaded timeout: got %v", loaded.Embedding.Timeout.Std())
	}
}

func TestSearchConfig_FloorLimit(t *testing.T) {
	c := SearchConfig{DefaultLimit: 15, MinLimit: 1, MaxLimit: 15}
	for in, want := range map[int]int{0: 1, -4: 1, 3: 3, 100: 100} {
		if got := c.FloorLimit(in); got != want {
			t.Errorf("FloorLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
