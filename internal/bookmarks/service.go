// Package bookmarks provides the bookmark record service. Every write keeps the record and its
// embedding in step by going through the lifecycle manager.
package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/lifecycle"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/storage"
)

var (
	// ErrNotFound is returned when the bookmark does not exist.
	ErrNotFound = storage.ErrNotFound
	// ErrAlreadyExists is returned when a bookmark id or tag name is taken.
	ErrAlreadyExists = storage.ErrAlreadyExists
	// ErrTagNotFound is returned when the tag does not exist.
	ErrTagNotFound = storage.ErrTagNotFound
	// ErrCollectionNotFound is returned when the collection does not exist.
	ErrCollectionNotFound = storage.ErrCollectionNotFound
	// ErrInvalidInput is returned when required fields are missing.
	ErrInvalidInput = errors.New("invalid bookmark input")
)

// Service creates, updates, and deletes bookmarks. Writes are serialized so that a record and its
// embedding always describe the same text; reads are not.
type Service struct {
	storage   storage.Storage
	lifecycle *lifecycle.Manager
	logger    *zap.Logger
	writeMu   sync.Mutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service.
func NewService(st storage.Storage, lm *lifecycle.Manager, opts ...ServiceOption) *Service {
	s := &Service{storage: st, lifecycle: lm, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates input, embeds the bookmark, and stores the record. A client-supplied id that
// is already taken yields ErrAlreadyExists and leaves the existing bookmark and its embedding
// alone. If embedding fails nothing is written; if the record write fails the new embedding is
// removed again.
func (s *Service) Create(ctx context.Context, in *models.BookmarkInput) (*models.Bookmark, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.New().String()
	}
	b := &models.Bookmark{
		ID:           id,
		Title:        in.Title,
		URL:          in.URL,
		Description:  in.Description,
		IsFavorite:   in.IsFavorite,
		CollectionID: in.CollectionID,
		TagIDs:       in.TagIDs,
	}
	if b.CollectionID != nil && *b.CollectionID == 0 {
		b.CollectionID = nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.storage.GetBookmark(ctx, id); err == nil {
		return nil, fmt.Errorf("bookmark %s: %w", id, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err := s.checkCollection(ctx, b.CollectionID); err != nil {
		return nil, err
	}

	if err := s.lifecycle.OnItemCreated(ctx, id, b.SignatureFields()); err != nil {
		return nil, err
	}
	if err := s.storage.CreateBookmark(ctx, b); err != nil {
		s.undoCreate(ctx, id, err)
		return nil, err
	}
	s.logger.Debug("bookmark created", zap.String("id", id))
	return b, nil
}

// undoCreate reverts the embedding written by a Create whose record write failed. When another
// writer created the record in the meantime its embedding is recomputed instead of removed.
func (s *Service) undoCreate(ctx context.Context, id string, cause error) {
	ctx = context.WithoutCancel(ctx)
	if errors.Is(cause, ErrAlreadyExists) {
		existing, err := s.storage.GetBookmark(ctx, id)
		if err == nil {
			s.restoreEmbedding(ctx, existing)
			return
		}
		s.logger.Warn("failed to load existing bookmark; run reindex to repair", zap.String("id", id), zap.Error(err))
		return
	}
	if err := s.lifecycle.OnItemDeleted(ctx, id); err != nil {
		s.logger.Error("failed to roll back embedding", zap.String("id", id), zap.Error(err))
	}
}

// checkCollection rejects a collection id that names no collection.
func (s *Service) checkCollection(ctx context.Context, id *int64) error {
	if id == nil || *id == 0 {
		return nil
	}
	if _, err := s.storage.GetCollection(ctx, *id); err != nil {
		if errors.Is(err, ErrCollectionNotFound) {
			return fmt.Errorf("%w: collection %d does not exist", ErrInvalidInput, *id)
		}
		return err
	}
	return nil
}

// Update applies patch. When the patch changes the title or description the embedding is
// recomputed first; an embedding failure leaves both record and embedding unchanged.
func (s *Service) Update(ctx context.Context, id string, patch *models.BookmarkPatch) (*models.Bookmark, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.storage.GetBookmark(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.MovesCollection() {
		if err := s.checkCollection(ctx, patch.CollectionID); err != nil {
			return nil, err
		}
	}
	updated := patch.Apply(*existing)

	var reembedded bool
	if patch.TouchesText() {
		reembedded, err = s.lifecycle.OnItemTextChanged(ctx, id, updated.SignatureFields())
		if err != nil {
			return nil, err
		}
	}
	if err := s.storage.UpdateBookmark(ctx, &updated); err != nil {
		if reembedded {
			s.restoreEmbedding(ctx, existing)
		}
		return nil, err
	}
	s.logger.Debug("bookmark updated", zap.String("id", id), zap.Bool("reembedded", reembedded))
	return &updated, nil
}

func (s *Service) restoreEmbedding(ctx context.Context, previous *models.Bookmark) {
	if _, err := s.lifecycle.OnItemTextChanged(context.WithoutCancel(ctx), previous.ID, previous.SignatureFields()); err != nil {
		s.logger.Warn("failed to restore previous embedding; run reindex to repair",
			zap.String("id", previous.ID), zap.Error(err))
	}
}

// Delete removes the bookmark and its embedding.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.DeleteBookmark(ctx, id); err != nil {
		return err
	}
	if err := s.lifecycle.OnItemDeleted(ctx, id); err != nil {
		s.logger.Error("bookmark deleted but embedding removal failed; run reindex to repair",
			zap.String("id", id), zap.Error(err))
	}
	s.logger.Debug("bookmark deleted", zap.String("id", id))
	return nil
}

// SetFavorite marks or unmarks a bookmark as favorite. The embedding is not touched.
func (s *Service) SetFavorite(ctx context.Context, id string, favorite bool) (*models.Bookmark, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	b, err := s.storage.GetBookmark(ctx, id)
	if err != nil {
		return nil, err
	}
	b.IsFavorite = favorite
	if err := s.storage.UpdateBookmark(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Get returns one bookmark.
func (s *Service) Get(ctx context.Context, id string) (*models.Bookmark, error) {
	return s.storage.GetBookmark(ctx, id)
}

// GetBookmark is Get under the name search.Engine expects.
func (s *Service) GetBookmark(ctx context.Context, id string) (*models.Bookmark, error) {
	return s.Get(ctx, id)
}

// List returns bookmarks newest first. A limit <= 0 returns all of them.
func (s *Service) List(ctx context.Context, offset, limit int) ([]*models.Bookmark, error) {
	return s.storage.ListBookmarks(ctx, offset, limit)
}

// InCollection returns the bookmarks of a collection newest first.
func (s *Service) InCollection(ctx context.Context, collectionID int64) ([]*models.Bookmark, error) {
	if _, err := s.storage.GetCollection(ctx, collectionID); err != nil {
		return nil, err
	}
	return s.storage.ListCollectionBookmarks(ctx, collectionID)
}

// Favorites returns favorite bookmarks newest first.
func (s *Service) Favorites(ctx context.Context) ([]*models.Bookmark, error) {
	return s.storage.ListFavorites(ctx)
}

// Count returns the number of bookmarks.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.storage.CountBookmarks(ctx)
}

// Reindex reconciles the embedding store with every stored bookmark.
// total is called once with the number of bookmarks before progress starts.
func (s *Service) Reindex(ctx context.Context, force bool, total func(int), progress func()) (lifecycle.ReconcileStats, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	all, err := s.storage.ListBookmarks(ctx, 0, 0)
	if err != nil {
		return lifecycle.ReconcileStats{}, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	if total != nil {
		total(len(all))
	}
	items := make([]lifecycle.Item, len(all))
	for i, b := range all {
		items[i] = lifecycle.Item{ID: b.ID, Fields: b.SignatureFields()}
	}
	return s.lifecycle.Reconcile(ctx, items, force, progress)
}
