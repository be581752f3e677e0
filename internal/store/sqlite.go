package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/vector"
)

const embeddingsSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
	item_id TEXT PRIMARY KEY,
	signature TEXT NOT NULL,
	dims INTEGER NOT NULL,
	vector BLOB NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitSQLiteSchema creates the embeddings table if it does not exist.
func InitSQLiteSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, embeddingsSchema)
	return err
}

// SQLiteStore keeps embeddings in the embeddings table. Enumeration follows rowid order;
// an upsert keeps the row's first rowid.
type SQLiteStore struct {
	db         *sql.DB
	ownsDB     bool
	dimensions int
	logger     *zap.Logger
}

// NewSQLiteStore uses an existing database handle, typically the one holding bookmark records.
// The handle is not closed by Close.
func NewSQLiteStore(db *sql.DB, dimensions int, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := InitSQLiteSchema(context.Background(), db); err != nil {
		return nil, fmt.Errorf("failed to initialize embeddings schema: %w", err)
	}
	return &SQLiteStore{db: db, dimensions: dimensions, logger: logger}, nil
}

// OpenSQLiteStore opens or creates a database at dbPath dedicated to embeddings.
func OpenSQLiteStore(dbPath string, dimensions int, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	s, err := NewSQLiteStore(db, dimensions, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// Put inserts or replaces the embedding for id in a single statement.
func (s *SQLiteStore) Put(ctx context.Context, id, signature string, v vector.Vector) error {
	if err := checkPut(s.dimensions, v); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (item_id, signature, dims, vector, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			signature = excluded.signature,
			dims = excluded.dims,
			vector = excluded.vector,
			updated_at = excluded.updated_at`,
		id, signature, len(v), vector.Encode(v), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

// Signature returns the stored signature for id.
func (s *SQLiteStore) Signature(ctx context.Context, id string) (string, bool, error) {
	var sig string
	err := s.db.QueryRowContext(ctx, "SELECT signature FROM embeddings WHERE item_id = ?", id).Scan(&sig)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read signature: %w", err)
	}
	return sig, true, nil
}

// AllWithEmbedding reads every row in rowid order, skipping rows whose blob does not decode.
func (s *SQLiteStore) AllWithEmbedding(ctx context.Context) ([]Entry, error) {
	return s.entries(ctx, true)
}

func (s *SQLiteStore) entries(ctx context.Context, warn bool) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT item_id, dims, vector FROM embeddings ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			id   string
			dims int
			blob []byte
		)
		if err := rows.Scan(&id, &dims, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		v, err := vector.Decode(blob, dims)
		if err == nil && s.dimensions > 0 {
			err = vector.Validate(v, s.dimensions)
		}
		if err != nil {
			if warn {
				s.logger.Warn("skipping corrupted embedding", zap.String("id", id), zap.Error(err))
			}
			continue
		}
		entries = append(entries, Entry{ID: id, Vector: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate embeddings: %w", err)
	}
	return entries, nil
}

// Remove deletes the row for id.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM embeddings WHERE item_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	return nil
}

// Count returns the number of decodable rows, matching what AllWithEmbedding returns.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	entries, err := s.entries(ctx, false)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Close closes the database when the store opened it.
func (s *SQLiteStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
