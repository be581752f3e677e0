package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hyperjump/shiori/internal/models"
)

const (
	tagColumns = `id, name, color,
		(SELECT COUNT(*) FROM bookmark_tags bt WHERE bt.tag_id = tags.id)`
	collectionColumns = `id, name, icon, color,
		(SELECT COUNT(*) FROM bookmarks b WHERE b.collection_id = collections.id)`
)

// CreateTag inserts a tag and sets its ID. A taken name yields ErrAlreadyExists.
func (s *SQLiteStorage) CreateTag(ctx context.Context, t *models.Tag) error {
	result, err := s.db.ExecContext(ctx, `INSERT INTO tags (name, color) VALUES (?, ?)`, t.Name, t.Color)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("tag %q: %w", t.Name, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert tag: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read tag id: %w", err)
	}
	t.ID = id
	t.Count = 0
	return nil
}

// GetTag returns a tag by ID with its bookmark count.
func (s *SQLiteStorage) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	var t models.Tag
	err := s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Color, &t.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrTagNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTag renames or recolors a tag.
func (s *SQLiteStorage) UpdateTag(ctx context.Context, t *models.Tag) error {
	result, err := s.db.ExecContext(ctx, `UPDATE tags SET name = ?, color = ? WHERE id = ?`, t.Name, t.Color, t.ID)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("tag %q: %w", t.Name, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to update tag: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrTagNotFound, t.ID)
	}
	return nil
}

// DeleteTag removes a tag and its bookmark links in one transaction.
func (s *SQLiteStorage) DeleteTag(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrTagNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmark_tags WHERE tag_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	return tx.Commit()
}

// ListTags returns every tag in creation order.
func (s *SQLiteStorage) ListTags(ctx context.Context) ([]*models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]*models.Tag, 0)
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Count); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

// CreateCollection inserts a collection and sets its ID.
func (s *SQLiteStorage) CreateCollection(ctx context.Context, c *models.Collection) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name, icon, color) VALUES (?, ?, ?)`, c.Name, c.Icon, c.Color)
	if err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read collection id: %w", err)
	}
	c.ID = id
	c.Count = 0
	return nil
}

// GetCollection returns a collection by ID with its bookmark count.
func (s *SQLiteStorage) GetCollection(ctx context.Context, id int64) (*models.Collection, error) {
	var c models.Collection
	err := s.db.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrCollectionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCollection replaces a collection's name, icon, and color.
func (s *SQLiteStorage) UpdateCollection(ctx context.Context, c *models.Collection) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE collections SET name = ?, icon = ?, color = ? WHERE id = ?`, c.Name, c.Icon, c.Color, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrCollectionNotFound, c.ID)
	}
	return nil
}

// DeleteCollection removes a collection and clears it from its bookmarks in one transaction.
func (s *SQLiteStorage) DeleteCollection(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrCollectionNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE bookmarks SET collection_id = NULL WHERE collection_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach collection: %w", err)
	}
	return tx.Commit()
}

// ListCollections returns every collection in creation order.
func (s *SQLiteStorage) ListCollections(ctx context.Context) ([]*models.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+collectionColumns+` FROM collections ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collections := make([]*models.Collection, 0)
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Count); err != nil {
			return nil, err
		}
		collections = append(collections, &c)
	}
	return collections, rows.Err()
}
