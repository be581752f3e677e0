package store

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Backend names an EmbeddingStore implementation.
type Backend string

const (
	// BackendSQLite stores embeddings next to the bookmark records. Default.
	BackendSQLite Backend = "sqlite"
	// BackendBolt stores embeddings in a separate bbolt file.
	BackendBolt Backend = "bolt"
	// BackendMemory keeps embeddings in memory only; they are lost on restart.
	BackendMemory Backend = "memory"
)

// Options configures New.
type Options struct {
	Dimensions   int
	DatabasePath string
	BoltPath     string
	// DB, when set, is reused by the SQLite backend instead of opening DatabasePath.
	DB     *sql.DB
	Logger *zap.Logger
}

// New creates an EmbeddingStore of the given backend.
// Supported backends: "sqlite" (default), "bolt", "memory".
func New(backend string, opts Options) (EmbeddingStore, error) {
	switch Backend(backend) {
	case BackendSQLite, "":
		if opts.DB != nil {
			return NewSQLiteStore(opts.DB, opts.Dimensions, opts.Logger)
		}
		if opts.DatabasePath == "" {
			return nil, fmt.Errorf("sqlite embedding backend requires a database path")
		}
		return OpenSQLiteStore(opts.DatabasePath, opts.Dimensions, opts.Logger)
	case BackendBolt:
		if opts.BoltPath == "" {
			return nil, fmt.Errorf("bolt embedding backend requires a bolt path")
		}
		return NewBoltStore(opts.BoltPath, opts.Dimensions, opts.Logger)
	case BackendMemory:
		return NewMemoryStore(opts.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend: %s (supported: sqlite, bolt, memory)", backend)
	}
}
