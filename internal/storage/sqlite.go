// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/store"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
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

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS bookmarks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		description TEXT NOT NULL,
		is_favorite INTEGER NOT NULL DEFAULT 0,
		collection_id INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS collections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		icon TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		color TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS bookmark_tags (
		bookmark_id TEXT NOT NULL,
		tag_id INTEGER NOT NULL,
		PRIMARY KEY (bookmark_id, tag_id)
	);

	CREATE INDEX IF NOT EXISTS idx_bookmarks_created_at ON bookmarks(created_at);
	CREATE INDEX IF NOT EXISTS idx_bookmarks_favorite ON bookmarks(is_favorite);
	CREATE INDEX IF NOT EXISTS idx_bookmark_tags_tag ON bookmark_tags(tag_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	// Databases created before collections existed lack the column.
	if err := ensureColumn(db, "bookmarks", "collection_id", "INTEGER"); err != nil {
		return err
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_bookmarks_collection ON bookmarks(collection_id)`); err != nil {
		return err
	}
	return store.InitSQLiteSchema(context.Background(), db)
}

func ensureColumn(db *sql.DB, table, column, decl string) error {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl)); err != nil {
		return fmt.Errorf("failed to add %s.%s: %w", table, column, err)
	}
	return nil
}

// DB returns the underlying handle so the SQLite embedding store can share the database.
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const bookmarkColumns = `id, title, url, description, is_favorite, collection_id, created_at, updated_at`

// CreateBookmark inserts a bookmark, attaches its tags, and sets its timestamps. A taken id
// yields ErrAlreadyExists.
func (s *SQLiteStorage) CreateBookmark(ctx context.Context, b *models.Bookmark) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookmarks (`+bookmarkColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.URL, b.Description, b.IsFavorite, b.CollectionID, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("bookmark %s: %w", b.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert bookmark: %w", err)
	}
	if err := replaceTags(ctx, tx, b.ID, b.TagIDs); err != nil {
		return err
	}
	if err := loadTags(ctx, tx, []*models.Bookmark{b}); err != nil {
		return err
	}
	return tx.Commit()
}

// GetBookmark returns a bookmark by ID.
func (s *SQLiteStorage) GetBookmark(ctx context.Context, id string) (*models.Bookmark, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ?`, id)
	b, err := scanBookmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := loadTags(ctx, s.db, []*models.Bookmark{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBookmark updates an existing bookmark and its tags and refreshes UpdatedAt.
func (s *SQLiteStorage) UpdateBookmark(ctx context.Context, b *models.Bookmark) error {
	b.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE bookmarks SET title = ?, url = ?, description = ?, is_favorite = ?, collection_id = ?, updated_at = ?
		 WHERE id = ?`,
		b.Title, b.URL, b.Description, b.IsFavorite, b.CollectionID, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bookmark: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, b.ID)
	}
	if err := replaceTags(ctx, tx, b.ID, b.TagIDs); err != nil {
		return err
	}
	if err := loadTags(ctx, tx, []*models.Bookmark{b}); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteBookmark removes a bookmark, its tag links, and its embedding row in one transaction.
func (s *SQLiteStorage) DeleteBookmark(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmark_tags WHERE bookmark_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete bookmark tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	return tx.Commit()
}

// ListBookmarks returns bookmarks newest first with offset and limit.
func (s *SQLiteStorage) ListBookmarks(ctx context.Context, offset, limit int) ([]*models.Bookmark, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	return s.query(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
}

// ListFavorites returns favorite bookmarks newest first.
func (s *SQLiteStorage) ListFavorites(ctx context.Context) ([]*models.Bookmark, error) {
	return s.query(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE is_favorite = 1 ORDER BY created_at DESC, rowid DESC`,
	)
}

// ListCollectionBookmarks returns the bookmarks of one collection newest first.
func (s *SQLiteStorage) ListCollectionBookmarks(ctx context.Context, collectionID int64) ([]*models.Bookmark, error) {
	return s.query(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE collection_id = ? ORDER BY created_at DESC, rowid DESC`,
		collectionID,
	)
}

// CountBookmarks returns the total number of bookmarks.
func (s *SQLiteStorage) CountBookmarks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarks`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) query(ctx context.Context, q string, args ...any) ([]*models.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookmarks := make([]*models.Bookmark, 0)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := loadTags(ctx, s.db, bookmarks); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row scanner) (*models.Bookmark, error) {
	var (
		b          models.Bookmark
		collection sql.NullInt64
	)
	if err := row.Scan(&b.ID, &b.Title, &b.URL, &b.Description, &b.IsFavorite, &collection, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if collection.Valid {
		id := collection.Int64
		b.CollectionID = &id
	}
	return &b, nil
}

// replaceTags sets the tag links of a bookmark. Ids that name no tag are skipped.
func replaceTags(ctx context.Context, q querier, bookmarkID string, tagIDs []int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM bookmark_tags WHERE bookmark_id = ?`, bookmarkID); err != nil {
		return fmt.Errorf("failed to clear bookmark tags: %w", err)
	}
	for _, tagID := range tagIDs {
		_, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO bookmark_tags (bookmark_id, tag_id) SELECT ?, id FROM tags WHERE id = ?`,
			bookmarkID, tagID,
		)
		if err != nil {
			return fmt.Errorf("failed to attach tag %d: %w", tagID, err)
		}
	}
	return nil
}

// tagBatch bounds the number of bound parameters per tag lookup.
const tagBatch = 500

// loadTags fills TagIDs and Tags of every bookmark, in tag name order.
func loadTags(ctx context.Context, q querier, bookmarks []*models.Bookmark) error {
	byID := make(map[string]*models.Bookmark, len(bookmarks))
	for _, b := range bookmarks {
		b.TagIDs = []int64{}
		b.Tags = []string{}
		byID[b.ID] = b
	}
	for start := 0; start < len(bookmarks); start += tagBatch {
		batch := bookmarks[start:min(start+tagBatch, len(bookmarks))]
		args := make([]any, len(batch))
		for i, b := range batch {
			args[i] = b.ID
		}
		rows, err := q.QueryContext(ctx,
			`SELECT bt.bookmark_id, t.id, t.name FROM bookmark_tags bt
			 JOIN tags t ON t.id = bt.tag_id
			 WHERE bt.bookmark_id IN (`+placeholders(len(batch))+`)
			 ORDER BY t.name`,
			args...,
		)
		if err != nil {
			return fmt.Errorf("failed to load tags: %w", err)
		}
		for rows.Next() {
			var (
				bookmarkID string
				tagID      int64
				name       string
			)
			if err := rows.Scan(&bookmarkID, &tagID, &name); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan tag: %w", err)
			}
			if b, ok := byID[bookmarkID]; ok {
				b.TagIDs = append(b.TagIDs, tagID)
				b.Tags = append(b.Tags, name)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return fmt.Errorf("failed to load tags: %w", err)
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// isConstraintViolation reports a primary key or unique constraint failure.
func isConstraintViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
}
