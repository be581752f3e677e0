package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=value pairs from the given .env files into the process environment.
// Missing files are ignored and variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ResolveAPIKey returns the embedding credential: embedding.api_key when set, otherwise the
// variable named by embedding.api_key_env. An empty result means the provider is unconfigured.
func (e *EmbeddingConfig) ResolveAPIKey() string {
	if key := strings.TrimSpace(e.APIKey); key != "" {
		return key
	}
	if e.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(e.APIKeyEnv))
}
