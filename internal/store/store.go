// Package store persists one embedding per item together with the signature text it was computed
// from. Backends: in-memory, SQLite and bbolt.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/shiori/internal/vector"
)

// ErrInvalidVector is returned by Put for empty or non-finite vectors.
var ErrInvalidVector = errors.New("invalid embedding vector")

// Entry is one stored embedding.
type Entry struct {
	ID     string
	Vector vector.Vector
}

// EmbeddingStore is a keyed store of item embeddings.
//
// Every method is individually atomic: readers never observe a signature from one Put paired
// with a vector from another. AllWithEmbedding enumerates in a deterministic order and skips
// entries that fail to decode.
type EmbeddingStore interface {
	// Put inserts or replaces the embedding for id.
	Put(ctx context.Context, id, signature string, v vector.Vector) error
	// Signature returns the stored signature for id; ok is false when id has no entry.
	Signature(ctx context.Context, id string) (sig string, ok bool, err error)
	// AllWithEmbedding returns a snapshot of every decodable entry.
	AllWithEmbedding(ctx context.Context) ([]Entry, error)
	// Remove deletes the entry for id. Removing an absent id is not an error.
	Remove(ctx context.Context, id string) error
	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
	Close() error
}

// checkPut validates v against the store dimension (0 accepts any length).
func checkPut(dims int, v vector.Vector) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidVector)
	}
	if dims > 0 && len(v) != dims {
		return &vector.DimensionMismatchError{Left: dims, Right: len(v)}
	}
	if !vector.Finite(v) {
		return fmt.Errorf("%w: non-finite component", ErrInvalidVector)
	}
	return nil
}
