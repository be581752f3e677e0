package models

import (
	"errors"
	"strings"
)

// Tag labels bookmarks. Count is the number of bookmarks carrying the tag.
type Tag struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
	Count int    `json:"count" db:"count"`
}

// TagInput is the input for creating a tag. An empty Color gets a palette color.
type TagInput struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Validate checks that the tag has a name.
func (in *TagInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// TagPatch is a partial tag update. Nil and empty fields are left unchanged.
type TagPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// Apply returns a copy of t with the patch applied.
func (p *TagPatch) Apply(t Tag) Tag {
	if provided(p.Name) {
		t.Name = *p.Name
	}
	if provided(p.Color) {
		t.Color = *p.Color
	}
	return t
}

// Collection groups bookmarks. Count is the number of bookmarks in the collection.
type Collection struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Icon  string `json:"icon" db:"icon"`
	Color string `json:"color" db:"color"`
	Count int    `json:"count" db:"count"`
}

// CollectionInput is the input for creating a collection. Empty Icon and Color get defaults.
type CollectionInput struct {
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// Validate checks that the collection has a name.
func (in *CollectionInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// CollectionPatch is a partial collection update. Nil and empty fields are left unchanged.
type CollectionPatch struct {
	Name  *string `json:"name,omitempty"`
	Icon  *string `json:"icon,omitempty"`
	Color *string `json:"color,omitempty"`
}

// Apply returns a copy of c with the patch applied.
func (p *CollectionPatch) Apply(c Collection) Collection {
	if provided(p.Name) {
		c.Name = *p.Name
	}
	if provided(p.Icon) {
		c.Icon = *p.Icon
	}
	if provided(p.Color) {
		c.Color = *p.Color
	}
	return c
}
