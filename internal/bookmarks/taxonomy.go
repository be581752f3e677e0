package bookmarks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/models"
)

// DefaultColors is the palette picked from when a tag or collection is created without a color.
var DefaultColors = []string{
	"#3B82F6", "#8B5CF6", "#06B6D4", "#10B981", "#F59E0B",
	"#EF4444", "#EC4899", "#14B8A6", "#F97316", "#6366F1",
	"#84CC16", "#A855F7", "#0EA5E9", "#22C55E", "#FBBF24",
}

// DefaultIcons are picked from when a collection is created without an icon.
var DefaultIcons = []string{
	"task", "kanban", "trending_up", "backlog", "warning", "error", "bug", "feature", "rocket",
}

func pick(choices []string) string {
	return choices[rand.IntN(len(choices))]
}

// CreateTag validates input and stores a tag, picking a palette color when none is given.
func (s *Service) CreateTag(ctx context.Context, in *models.TagInput) (*models.Tag, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	t := &models.Tag{Name: strings.TrimSpace(in.Name), Color: in.Color}
	if t.Color == "" {
		t.Color = pick(DefaultColors)
	}
	if err := s.storage.CreateTag(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Debug("tag created", zap.Int64("id", t.ID), zap.String("name", t.Name))
	return t, nil
}

// GetTag returns one tag.
func (s *Service) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	return s.storage.GetTag(ctx, id)
}

// UpdateTag applies patch to a tag.
func (s *Service) UpdateTag(ctx context.Context, id int64, patch *models.TagPatch) (*models.Tag, error) {
	existing, err := s.storage.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*existing)
	if err := s.storage.UpdateTag(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTag removes a tag from every bookmark and deletes it. Embeddings are not affected.
func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	if err := s.storage.DeleteTag(ctx, id); err != nil {
		return err
	}
	s.logger.Debug("tag deleted", zap.Int64("id", id))
	return nil
}

// Tags returns every tag.
func (s *Service) Tags(ctx context.Context) ([]*models.Tag, error) {
	return s.storage.ListTags(ctx)
}

// CreateCollection validates input and stores a collection, picking a palette color and icon
// when they are not given.
func (s *Service) CreateCollection(ctx context.Context, in *models.CollectionInput) (*models.Collection, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	c := &models.Collection{Name: strings.TrimSpace(in.Name), Icon: in.Icon, Color: in.Color}
	if c.Icon == "" {
		c.Icon = pick(DefaultIcons)
	}
	if c.Color == "" {
		c.Color = pick(DefaultColors)
	}
	if err := s.storage.CreateCollection(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Debug("collection created", zap.Int64("id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// GetCollection returns one collection.
func (s *Service) GetCollection(ctx context.Context, id int64) (*models.Collection, error) {
	return s.storage.GetCollection(ctx, id)
}

// UpdateCollection applies patch to a collection.
func (s *Service) UpdateCollection(ctx context.Context, id int64, patch *models.CollectionPatch) (*models.Collection, error) {
	existing, err := s.storage.GetCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*existing)
	if err := s.storage.UpdateCollection(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCollection deletes a collection. Its bookmarks are kept without a collection.
func (s *Service) DeleteCollection(ctx context.Context, id int64) error {
	// Held so that no bookmark write lands on the collection after it is gone.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.DeleteCollection(ctx, id); err != nil {
		return err
	}
	s.logger.Debug("collection deleted", zap.Int64("id", id))
	return nil
}

// Collections returns every collection.
func (s *Service) Collections(ctx context.Context) ([]*models.Collection, error) {
	return s.storage.ListCollections(ctx)
}
