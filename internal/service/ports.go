// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jellyarcade/internal/imaging"
	"jellyarcade/internal/models"
)

// Repository contract shared by every port below: Find* methods return
// (nil, nil) when the row does not exist, and writes that hit a unique
// constraint return an error wrapping store.ErrDuplicate.

// CategoryRepository persists categories.
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindByFlag(ctx context.Context, flag models.CategoryFlag) (*models.Category, error)
	// List returns every category ordered by order, then Turkish name.
	List(ctx context.Context) ([]models.Category, error)
	// Children returns the sibling set under parentID ordered by order.
	Children(ctx context.Context, parentID *uuid.UUID) ([]models.Category, error)
	CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)
	HasChildren(ctx context.Context, id uuid.UUID) (bool, error)
	SlugTaken(ctx context.Context, loc models.Locale, slug string, exclude *uuid.UUID) (bool, error)
	NextSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error)
	Create(ctx context.Context, c *models.Category) error
	// Update writes every field except parent and order.
	Update(ctx context.Context, c *models.Category) error
	// Reposition applies all positions in one transaction.
	Reposition(ctx context.Context, positions []models.CategoryPosition) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// GameRepository persists games. Methods returning games attach their
// categories unless noted otherwise.
type GameRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	// FindBySlug matches the slug of either locale.
	FindBySlug(ctx context.Context, slug string) (*models.Game, error)
	List(ctx context.Context, f models.GameFilter) ([]models.Game, error)
	// ListByCategory orders by per-category position, unpositioned games
	// last, then by global order.
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Game, error)
	Showcased(ctx context.Context, limit int) ([]models.Game, error)
	MostPlayed(ctx context.Context, limit int) ([]models.Game, error)
	// Search is a case-insensitive literal substring match over the title,
	// description and keywords of loc.
	Search(ctx context.Context, loc models.Locale, q string, limit int) ([]models.Game, error)
	SlugTaken(ctx context.Context, loc models.Locale, slug string, exclude *uuid.UUID) (bool, error)
	NextSortOrder(ctx context.Context) (int, error)
	Create(ctx context.Context, g *models.Game) error
	// Update writes every field except play count.
	Update(ctx context.Context, g *models.Game) error
	Delete(ctx context.Context, id uuid.UUID) error
	// IncrementPlayCount adds one to the play count and returns the new
	// value. ok is false when the game does not exist.
	IncrementPlayCount(ctx context.Context, id uuid.UUID) (count int64, ok bool, err error)
	// UpdateOrder applies the batch in one transaction and returns the ids
	// that matched no game.
	UpdateOrder(ctx context.Context, batch []models.OrderUpdate) (skipped []uuid.UUID, err error)
	// UpdateCategoryOrder is UpdateOrder for the per-category position;
	// games not in the category are skipped.
	UpdateCategoryOrder(ctx context.Context, categoryID uuid.UUID, batch []models.OrderUpdate) (skipped []uuid.UUID, err error)
}

// UserRepository persists users with their favorites and play history.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByProvider(ctx context.Context, p models.Provider, externalID string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, u *models.User) error
	LinkProvider(ctx context.Context, id uuid.UUID, p models.Provider, externalID string) error
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error

	AddFavorite(ctx context.Context, userID, gameID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, gameID uuid.UUID) error
	Favorites(ctx context.Context, userID uuid.UUID) ([]models.Game, error)
	AddFavoriteCategory(ctx context.Context, userID, categoryID uuid.UUID) error
	RemoveFavoriteCategory(ctx context.Context, userID, categoryID uuid.UUID) error
	FavoriteCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error)

	// PushRecentPlay prepends the play and keeps the newest
	// models.RecentlyPlayedLimit entries in a single atomic write.
	PushRecentPlay(ctx context.Context, userID, gameID uuid.UUID, playedAt time.Time) error
	// RecentPlays returns the list newest first with games attached.
	RecentPlays(ctx context.Context, userID uuid.UUID) ([]models.RecentPlay, error)
}

// NotificationRepository persists notifications.
type NotificationRepository interface {
	// CreateForAllUsers inserts one notification per user and returns how
	// many were created.
	CreateForAllUsers(ctx context.Context, d models.NotificationDraft) (int64, error)
	// CreateForCategoryFans does the same for users who favorited the category.
	CreateForCategoryFans(ctx context.Context, categoryID uuid.UUID, d models.NotificationDraft) (int64, error)
	// ListForUser returns newest first with the related game attached.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	// MarkRead reports false when no notification with id belongs to userID.
	MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Media stores images and returns their public URL.
type Media interface {
	Upload(ctx context.Context, data []byte, spec imaging.Spec) (string, error)
	Destroy(ctx context.Context, url string) error
	// Owns reports whether url was produced by Upload, as opposed to an
	// external image such as a social profile photo.
	Owns(url string) bool
}

// CategoryCache caches the flat category listing.
type CategoryCache interface {
	Categories(ctx context.Context) ([]models.Category, bool)
	StoreCategories(ctx context.Context, list []models.Category)
	Invalidate(ctx context.Context)
}

// Locker provides named mutual exclusion scopes.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Generate(userID uuid.UUID, role models.Role) (string, error)
}

// Counter is satisfied by prometheus.Counter.
type Counter interface {
	Inc()
}
