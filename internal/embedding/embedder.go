// Package embedding provides the embedding provider boundary: the Embedder interface,
// concrete providers, and the Gateway that adds retry, backoff, and rate limiting.
package embedding

import (
	"context"

	"github.com/hyperjump/shiori/internal/vector"
)

// Embedder produces a vector embedding for a single text.
type Embedder interface {
	Embed(ctx context.Context, text string) (vector.Vector, error)
	Dimensions() int
	Close() error
}
