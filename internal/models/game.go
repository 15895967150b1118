// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Orientation is the screen orientation a game is designed for.
type Orientation string

const (
	OrientationHorizontal Orientation = "horizontal"
	OrientationVertical   Orientation = "vertical"
)

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	return o == OrientationHorizontal || o == OrientationVertical
}

// Game is a playable entry of the catalog.
type Game struct {
	ID            uuid.UUID         `json:"id"`
	Title         Localized         `json:"title"`
	Slug          Localized         `json:"slug"`
	Description   Localized         `json:"description"`
	Keywords      LocalizedList     `json:"keywords"`
	CategoryIDs   []uuid.UUID       `json:"categoryIds"`
	InstantLink   string            `json:"instantLink"`
	Image         string            `json:"image"`
	Orientation   Orientation       `json:"orientation"`
	IsNew         bool              `json:"isNew"`
	IsPopular     bool              `json:"isPopular"`
	IsActive      bool              `json:"isActive"`
	IsShowcased   bool              `json:"isShowcased"`
	PlayCount     int64             `json:"playCount"`
	Order         int               `json:"order"`
	CategoryOrder map[uuid.UUID]int `json:"categoryOrder"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`

	// Populated by store methods that attach categories.
	Categories []Category `json:"categories,omitempty"`
}

// InCategory reports whether the game references the category.
func (g *Game) InCategory(id uuid.UUID) bool {
	for _, c := range g.CategoryIDs {
		if c == id {
			return true
		}
	}
	return false
}

// GameFilter narrows a game listing.
type GameFilter struct {
	CategoryID *uuid.UUID
}

// OrderUpdate is one item of a bulk order batch.
type OrderUpdate struct {
	ID    uuid.UUID `json:"gameId" validate:"required"`
	Order int       `json:"order" validate:"min=0"`
}

// GameView is a game projected to a single locale.
type GameView struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Keywords    []string       `json:"keywords"`
	Categories  []CategoryView `json:"categories"`
	InstantLink string         `json:"instantLink"`
	Image       string         `json:"image"`
	Orientation Orientation    `json:"orientation"`
	IsNew       bool           `json:"isNew"`
	IsPopular   bool           `json:"isPopular"`
	IsActive    bool           `json:"isActive"`
	PlayCount   int64          `json:"playCount"`
	Order       int            `json:"order"`
}

// Localize projects the game, and any attached categories, to loc.
func (g *Game) Localize(loc Locale) GameView {
	cats := make([]CategoryView, 0, len(g.Categories))
	for i := range g.Categories {
		cats = append(cats, g.Categories[i].Localize(loc))
	}
	return GameView{
		ID:          g.ID,
		Title:       g.Title.Get(loc),
		Slug:        g.Slug.Get(loc),
		Description: g.Description.Get(loc),
		Keywords:    g.Keywords.Get(loc),
		Categories:  cats,
		InstantLink: g.InstantLink,
		Image:       g.Image,
		Orientation: g.Orientation,
		IsNew:       g.IsNew,
		IsPopular:   g.IsPopular,
		IsActive:    g.IsActive,
		PlayCount:   g.PlayCount,
		Order:       g.Order,
	}
}

// GameRef is the compact projection embedded in notifications, favorites
// and recently played lists.
type GameRef struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Image       string    `json:"image,omitempty"`
	InstantLink string    `json:"instantLink,omitempty"`
	PlayCount   int64     `json:"playCount"`
}

// Ref projects the game to its compact form in loc.
func (g *Game) Ref(loc Locale) GameRef {
	return GameRef{
		ID:          g.ID,
		Title:       g.Title.Get(loc),
		Slug:        g.Slug.Get(loc),
		Image:       g.Image,
		InstantLink: g.InstantLink,
		PlayCount:   g.PlayCount,
	}
}
