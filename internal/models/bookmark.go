// Package models defines core data structures for bookmarks, search queries, and search results.
package models

import (
	"errors"
	"strings"
	"time"
)

// Bookmark is a stored bookmark record. CollectionID is nil when the bookmark belongs to no
// collection; TagIDs and Tags list the attached tags in name order.
type Bookmark struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	URL          string    `json:"url" db:"url"`
	Description  string    `json:"description" db:"description"`
	IsFavorite   bool      `json:"is_favorite" db:"is_favorite"`
	CollectionID *int64    `json:"collection_id" db:"collection_id"`
	TagIDs       []int64   `json:"tag_ids"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// SignatureFields returns the text fields that determine the bookmark's embedding.
func (b *Bookmark) SignatureFields() SignatureFields {
	return SignatureFields{Title: b.Title, Description: b.Description}
}

// SignatureFields are the fields an embedding is computed from.
type SignatureFields struct {
	Title       string
	Description string
}

// Signature returns the text that gets embedded: title and description joined by a space, trimmed.
func (f SignatureFields) Signature() string {
	return strings.TrimSpace(f.Title + " " + f.Description)
}

// BookmarkInput is the input for creating a bookmark. Tag ids that do not name a tag are ignored.
type BookmarkInput struct {
	ID           string  `json:"id,omitempty"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	Description  string  `json:"description"`
	IsFavorite   bool    `json:"is_favorite,omitempty"`
	CollectionID *int64  `json:"collection_id,omitempty"`
	TagIDs       []int64 `json:"tag_ids,omitempty"`
}

// Validate checks that every required field is non-blank.
func (in *BookmarkInput) Validate() error {
	var errs []error
	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if strings.TrimSpace(in.URL) == "" {
		errs = append(errs, errors.New("url is required"))
	}
	if strings.TrimSpace(in.Description) == "" {
		errs = append(errs, errors.New("description is required"))
	}
	return errors.Join(errs...)
}

// BookmarkPatch is a partial update. Nil fields are left unchanged, and so are empty strings and
// a zero CollectionID. A non-nil TagIDs replaces the tag set; an empty one clears it.
type BookmarkPatch struct {
	Title        *string `json:"title,omitempty"`
	URL          *string `json:"url,omitempty"`
	Description  *string `json:"description,omitempty"`
	IsFavorite   *bool   `json:"is_favorite,omitempty"`
	CollectionID *int64  `json:"collection_id,omitempty"`
	TagIDs       []int64 `json:"tag_ids"`
}

// Apply returns a copy of b with the patch applied.
func (p *BookmarkPatch) Apply(b Bookmark) Bookmark {
	if provided(p.Title) {
		b.Title = *p.Title
	}
	if provided(p.URL) {
		b.URL = *p.URL
	}
	if provided(p.Description) {
		b.Description = *p.Description
	}
	if p.IsFavorite != nil {
		b.IsFavorite = *p.IsFavorite
	}
	if p.MovesCollection() {
		id := *p.CollectionID
		b.CollectionID = &id
	}
	if p.TagIDs != nil {
		b.TagIDs = append([]int64{}, p.TagIDs...)
	}
	return b
}

// MovesCollection reports whether the patch supplies a collection.
func (p *BookmarkPatch) MovesCollection() bool {
	return p.CollectionID != nil && *p.CollectionID != 0
}

// TouchesText reports whether the patch supplies a title or description.
func (p *BookmarkPatch) TouchesText() bool {
	return provided(p.Title) || provided(p.Description)
}

func provided(s *string) bool {
	return s != nil && *s != ""
}
