// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"jellyarcade/internal/imaging"
	"jellyarcade/internal/models"
)

// UserService manages profiles, favorites and play history.
type UserService struct {
	users      UserRepository
	games      GameRepository
	categories CategoryRepository
	media      Media

	// Cost is the bcrypt cost for new password hashes.
	Cost int
}

// NewUserService wires a UserService.
func NewUserService(users UserRepository, games GameRepository, categories CategoryRepository, media Media) *UserService {
	return &UserService{users: users, games: games, categories: categories, media: media, Cost: bcrypt.DefaultCost}
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, notFound("user")
	}
	return u, nil
}

// List returns every user, oldest first.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Profile returns the user with favorites and recent plays projected to loc.
func (s *UserService) Profile(ctx context.Context, id uuid.UUID, loc models.Locale) (*models.Profile, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	favorites, err := s.Favorites(ctx, id)
	if err != nil {
		return nil, err
	}
	recent, err := s.RecentGames(ctx, id)
	if err != nil {
		return nil, err
	}

	p := &models.Profile{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Avatar:         u.Avatar,
		Role:           u.Role,
		RecentlyPlayed: RecentViews(recent, loc),
		Favorites:      make([]models.GameRef, 0, len(favorites)),
	}
	for i := range favorites {
		p.Favorites = append(p.Favorites, favorites[i].Ref(loc))
	}
	return p, nil
}

// RecentViews projects recent plays to loc, dropping plays of deleted games.
func RecentViews(plays []models.RecentPlay, loc models.Locale) []models.RecentPlayView {
	views := make([]models.RecentPlayView, 0, len(plays))
	for _, p := range plays {
		if p.Game == nil {
			continue
		}
		views = append(views, models.RecentPlayView{Game: p.Game.Ref(loc), PlayedAt: p.PlayedAt})
	}
	return views
}

// UpdateProfile renames the user.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name is required")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.users.UpdateName(ctx, id, name); err != nil {
		return nil, fmt.Errorf("update user name: %w", err)
	}
	return s.Get(ctx, id)
}

// ChangePassword replaces the user's password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.HasPassword() && !checkPassword(u, current) {
		return &Error{Kind: KindInvalidCredentials, Message: "current password is incorrect"}
	}
	return s.storePassword(ctx, id, next)
}

// SetPassword replaces a password without the current one. Only admins and
// the account owner may do this.
func (s *UserService) SetPassword(ctx context.Context, actorID uuid.UUID, actorRole models.Role, targetID uuid.UUID, next string) error {
	if actorID != targetID && actorRole != models.RoleAdmin {
		return &Error{Kind: KindForbidden, Message: "not allowed to change this password"}
	}
	if _, err := s.Get(ctx, targetID); err != nil {
		return err
	}
	return s.storePassword(ctx, targetID, next)
}

func (s *UserService) storePassword(ctx context.Context, id uuid.UUID, password string) error {
	if len(password) < MinPasswordLength {
		return validationError("password must be at least %d characters", MinPasswordLength)
	}
	hash, err := hashPassword(password, s.Cost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateAvatar uploads a new avatar and destroys the previous custom one.
func (s *UserService) UpdateAvatar(ctx context.Context, id uuid.UUID, image []byte) (*models.User, error) {
	if len(image) == 0 {
		return nil, validationError("avatar image is required")
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.media.Upload(ctx, image, imaging.AvatarImage)
	if err != nil {
		return nil, newError(KindImageUpload, "avatar upload failed", err)
	}
	if err := s.users.UpdateAvatar(ctx, id, uploaded); err != nil {
		if derr := s.media.Destroy(ctx, uploaded); derr != nil {
			slog.Warn("destroy orphaned avatar", "url", uploaded, "error", derr)
		}
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	if u.HasCustomAvatar() && s.media.Owns(u.Avatar) {
		if err := s.media.Destroy(ctx, u.Avatar); err != nil {
			slog.Warn("destroy replaced avatar", "url", u.Avatar, "error", err)
		}
	}
	u.Avatar = uploaded
	return u, nil
}

// AddFavorite adds a game to the user's favorites. Adding twice is a no-op.
func (s *UserService) AddFavorite(ctx context.Context, userID, gameID uuid.UUID) ([]models.Game, error) {
	g, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	if g == nil {
		return nil, notFound("game")
	}
	if err := s.users.AddFavorite(ctx, userID, gameID); err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return s.Favorites(ctx, userID)
}

// RemoveFavorite removes a game from the user's favorites.
func (s *UserService) RemoveFavorite(ctx context.Context, userID, gameID uuid.UUID) ([]models.Game, error) {
	if err := s.users.RemoveFavorite(ctx, userID, gameID); err != nil {
		return nil, fmt.Errorf("remove favorite: %w", err)
	}
	return s.Favorites(ctx, userID)
}

// Favorites lists the user's favorite games.
func (s *UserService) Favorites(ctx context.Context, userID uuid.UUID) ([]models.Game, error) {
	games, err := s.users.Favorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if games == nil {
		games = []models.Game{}
	}
	return games, nil
}

// AddFavoriteCategory subscribes the user to new games of a category.
func (s *UserService) AddFavoriteCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]models.Category, error) {
	c, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if c == nil {
		return nil, notFound("category")
	}
	if err := s.users.AddFavoriteCategory(ctx, userID, categoryID); err != nil {
		return nil, fmt.Errorf("add favorite category: %w", err)
	}
	return s.FavoriteCategories(ctx, userID)
}

// RemoveFavoriteCategory unsubscribes the user from a category.
func (s *UserService) RemoveFavoriteCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]models.Category, error) {
	if err := s.users.RemoveFavoriteCategory(ctx, userID, categoryID); err != nil {
		return nil, fmt.Errorf("remove favorite category: %w", err)
	}
	return s.FavoriteCategories(ctx, userID)
}

// FavoriteCategories lists the user's favorite categories.
func (s *UserService) FavoriteCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	list, err := s.users.FavoriteCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorite categories: %w", err)
	}
	if list == nil {
		list = []models.Category{}
	}
	return list, nil
}

// RecentGames returns the user's recently played games, newest first.
func (s *UserService) RecentGames(ctx context.Context, userID uuid.UUID) ([]models.RecentPlay, error) {
	plays, err := s.users.RecentPlays(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list recent plays: %w", err)
	}
	return plays, nil
}
