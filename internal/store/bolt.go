package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/vector"
)

var bucketEmbeddings = []byte("embeddings")

// BoltStore keeps embeddings in a bbolt file. Enumeration follows key order.
type BoltStore struct {
	db         *bbolt.DB
	dimensions int
	logger     *zap.Logger
}

type storedEmbedding struct {
	Signature string    `json:"s"`
	Vector    []float32 `json:"v"`
}

// NewBoltStore opens or creates the bbolt file at path.
func NewBoltStore(path string, dimensions int, logger *zap.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create bolt directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create embeddings bucket: %w", err)
	}
	return &BoltStore{db: db, dimensions: dimensions, logger: logger}, nil
}

// Put inserts or replaces the embedding for id.
func (s *BoltStore) Put(ctx context.Context, id, signature string, v vector.Vector) error {
	if err := checkPut(s.dimensions, v); err != nil {
		return err
	}
	data, err := json.Marshal(storedEmbedding{Signature: signature, Vector: v})
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).Put([]byte(id), data)
	})
}

// Signature returns the stored signature for id.
func (s *BoltStore) Signature(ctx context.Context, id string) (string, bool, error) {
	var (
		sig string
		ok  bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get([]byte(id))
		if data == nil {
			return nil
		}
		var stored storedEmbedding
		if err := json.Unmarshal(data, &stored); err != nil {
			// Undecodable entries read as absent.
			s.logger.Warn("corrupted embedding entry", zap.String("id", id), zap.Error(err))
			return nil
		}
		sig, ok = stored.Signature, true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read signature: %w", err)
	}
	return sig, ok, nil
}

// AllWithEmbedding returns every decodable entry in key order.
func (s *BoltStore) AllWithEmbedding(ctx context.Context) ([]Entry, error) {
	entries, err := s.entries(true)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	return entries, nil
}

func (s *BoltStore) entries(warn bool) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).ForEach(func(k, data []byte) error {
			id := string(k)
			v, err := s.decode(data)
			if err != nil {
				if warn {
					s.logger.Warn("skipping corrupted embedding", zap.String("id", id), zap.Error(err))
				}
				return nil
			}
			entries = append(entries, Entry{ID: id, Vector: v})
			return nil
		})
	})
	return entries, err
}

func (s *BoltStore) decode(data []byte) (vector.Vector, error) {
	var stored storedEmbedding
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrCorrupted, err)
	}
	v := vector.Vector(stored.Vector)
	if err := vector.Validate(v, s.dimensions); err != nil {
		return nil, err
	}
	return v, nil
}

// Remove deletes the entry for id.
func (s *BoltStore) Remove(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).Delete([]byte(id))
	})
}

// Count returns the number of decodable entries, matching what AllWithEmbedding returns.
func (s *BoltStore) Count(ctx context.Context) (int, error) {
	entries, err := s.entries(false)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return len(entries), nil
}

// Close closes the bbolt file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
