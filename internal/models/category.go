// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is one node of the category forest. Siblings share the same
// ParentID (nil for roots) and are ordered by Order.
type Category struct {
	ID           uuid.UUID     `json:"id"`
	Name         Localized     `json:"name"`
	Slug         Localized     `json:"slug"`
	Description  Localized     `json:"description"`
	Keywords     LocalizedList `json:"keywords"`
	Order        int           `json:"order"`
	ParentID     *uuid.UUID    `json:"parent"`
	Image        *string       `json:"image"`
	IsActive     bool          `json:"isActive"`
	IsNewGames   bool          `json:"isNewGames"`
	IsMostPlayed bool          `json:"isMostPlayed"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// CategoryNode is the presentation view produced by the tree builder.
type CategoryNode struct {
	Category
	Children []CategoryNode `json:"children,omitempty"`
}

// CategoryFlag names one of the singleton flags a category can carry.
type CategoryFlag string

const (
	FlagNewGames   CategoryFlag = "is_new_games"
	FlagMostPlayed CategoryFlag = "is_most_played"
)

// CategoryPosition is one point update of a sibling renumbering batch.
type CategoryPosition struct {
	ID       uuid.UUID
	ParentID *uuid.UUID
	Order    int
}

// CategoryView is a category projected to a single locale.
type CategoryView struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Keywords    []string   `json:"keywords"`
	Image       *string    `json:"image"`
	Order       int        `json:"order"`
	ParentID    *uuid.UUID `json:"parent"`
}

// Localize projects the category to loc.
func (c *Category) Localize(loc Locale) CategoryView {
	return CategoryView{
		ID:          c.ID,
		Name:        c.Name.Get(loc),
		Slug:        c.Slug.Get(loc),
		Description: c.Description.Get(loc),
		Keywords:    c.Keywords.Get(loc),
		Image:       c.Image,
		Order:       c.Order,
		ParentID:    c.ParentID,
	}
}

// SameParent reports whether two parent references point at the same
// category, treating two nil parents as equal.
func SameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
