// Package storage defines the persistence interface for bookmark records, tags, and collections.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/shiori/internal/models"
)

var (
	// ErrNotFound is returned when a bookmark does not exist.
	ErrNotFound = errors.New("bookmark not found")
	// ErrTagNotFound is returned when a tag does not exist.
	ErrTagNotFound = errors.New("tag not found")
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrAlreadyExists is returned when a bookmark id or tag name is already taken.
	ErrAlreadyExists = errors.New("already exists")
)

// Storage defines bookmark persistence operations.
type Storage interface {
	// CreateBookmark inserts the record and attaches b.TagIDs, skipping ids that name no tag.
	CreateBookmark(ctx context.Context, b *models.Bookmark) error
	GetBookmark(ctx context.Context, id string) (*models.Bookmark, error)
	// UpdateBookmark replaces the record and its tag set.
	UpdateBookmark(ctx context.Context, b *models.Bookmark) error
	// DeleteBookmark removes the record together with its tag links and any embedding row kept in
	// the same database.
	DeleteBookmark(ctx context.Context, id string) error
	// ListBookmarks returns bookmarks newest first. A limit <= 0 returns all of them.
	ListBookmarks(ctx context.Context, offset, limit int) ([]*models.Bookmark, error)
	ListFavorites(ctx context.Context) ([]*models.Bookmark, error)
	ListCollectionBookmarks(ctx context.Context, collectionID int64) ([]*models.Bookmark, error)

	CountBookmarks(ctx context.Context) (int64, error)

	CreateTag(ctx context.Context, t *models.Tag) error
	GetTag(ctx context.Context, id int64) (*models.Tag, error)
	UpdateTag(ctx context.Context, t *models.Tag) error
	// DeleteTag removes the tag from every bookmark carrying it.
	DeleteTag(ctx context.Context, id int64) error
	ListTags(ctx context.Context) ([]*models.Tag, error)

	CreateCollection(ctx context.Context, c *models.Collection) error
	GetCollection(ctx context.Context, id int64) (*models.Collection, error)
	UpdateCollection(ctx context.Context, c *models.Collection) error
	// DeleteCollection leaves member bookmarks in place without a collection.
	DeleteCollection(ctx context.Context, id int64) error
	ListCollections(ctx context.Context) ([]*models.Collection, error)

	Close() error
}
