// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"jellyarcade/internal/models"
)

// UserStore is the in-memory user repository.
type UserStore struct {
	db *DB
}

func (r *userRow) clone() models.User {
	u := r.User
	u.GoogleID = cloneString(r.GoogleID)
	u.FacebookID = cloneString(r.FacebookID)
	return u
}

func providerOf(u *models.User, p models.Provider) *string {
	if p == models.ProviderGoogle {
		return u.GoogleID
	}
	return u.FacebookID
}

// checkUnique enforces the unique email and provider ids, ignoring exclude.
func (db *DB) checkUnique(u *models.User, exclude uuid.UUID) error {
	for id, r := range db.users {
		if id == exclude {
			continue
		}
		if u.Email != "" && r.Email == u.Email {
			return duplicate("insert user", "users_email_key")
		}
		if u.GoogleID != nil && r.GoogleID != nil && *u.GoogleID == *r.GoogleID {
			return duplicate("insert user", "users_google_id_key")
		}
		if u.FacebookID != nil && r.FacebookID != nil && *u.FacebookID == *r.FacebookID {
			return duplicate("insert user", "users_facebook_id_key")
		}
	}
	return nil
}

func (db *DB) findUser(match func(*userRow) bool) *models.User {
	for _, r := range db.users {
		if match(r) {
			u := r.clone()
			return &u
		}
	}
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.findUser(func(r *userRow) bool { return r.ID == id }), nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if email == "" {
		return nil, nil
	}
	return s.db.findUser(func(r *userRow) bool { return r.Email == email }), nil
}

func (s *UserStore) FindByProvider(ctx context.Context, p models.Provider, externalID string) (*models.User, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("find user by provider: unknown provider %q", p)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.findUser(func(r *userRow) bool {
		id := providerOf(&r.User, p)
		return id != nil && *id == externalID
	}), nil
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rows := make([]*userRow, 0, len(s.db.users))
	for _, r := range s.db.users {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	users := make([]models.User, len(rows))
	for i, r := range rows {
		users[i] = r.clone()
	}
	return users, nil
}

func (s *UserStore) Count(ctx context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.users), nil
}

// Create inserts a user and fills in its ID and timestamps.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := s.db.checkUnique(u, uuid.Nil); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	now := s.db.now()
	u.ID = uuid.New()
	u.CreatedAt, u.UpdatedAt = now, now
	r := &userRow{User: *u, seq: s.db.next(), favoriteCats: map[uuid.UUID]bool{}}
	r.User = r.clone()
	s.db.users[u.ID] = r
	return nil
}

// update applies fn to the user under the lock and bumps updated_at.
func (s *UserStore) update(op string, id uuid.UUID, fn func(*userRow) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.users[id]
	if !ok {
		return nil
	}
	if err := fn(r); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	r.UpdatedAt = s.db.now()
	return nil
}

func (s *UserStore) LinkProvider(ctx context.Context, id uuid.UUID, p models.Provider, externalID string) error {
	if !p.Valid() {
		return fmt.Errorf("link provider: unknown provider %q", p)
	}
	return s.update("link provider", id, func(r *userRow) error {
		candidate := r.clone()
		if p == models.ProviderGoogle {
			candidate.GoogleID = &externalID
		} else {
			candidate.FacebookID = &externalID
		}
		if err := s.db.checkUnique(&candidate, id); err != nil {
			return err
		}
		r.User = candidate
		return nil
	})
}

func (s *UserStore) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	return s.update("update user name", id, func(r *userRow) error { r.Name = name; return nil })
}

func (s *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return s.update("update password", id, func(r *userRow) error { r.PasswordHash = hash; return nil })
}

func (s *UserStore) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error {
	return s.update("update avatar", id, func(r *userRow) error { r.Avatar = avatar; return nil })
}

// AddFavorite is a no-op when the game is already a favorite.
func (s *UserStore) AddFavorite(ctx context.Context, userID, gameID uuid.UUID) error {
	return s.update("add favorite", userID, func(r *userRow) error {
		if _, ok := s.db.games[gameID]; !ok {
			return fmt.Errorf("game %s does not exist", gameID)
		}
		for _, id := range r.favorites {
			if id == gameID {
				return nil
			}
		}
		r.favorites = append(r.favorites, gameID)
		return nil
	})
}

func (s *UserStore) RemoveFavorite(ctx context.Context, userID, gameID uuid.UUID) error {
	return s.update("remove favorite", userID, func(r *userRow) error {
		r.favorites = withoutID(r.favorites, gameID)
		return nil
	})
}

// Favorites returns the favorite games in the order they were added,
// without their categories.
func (s *UserStore) Favorites(ctx context.Context, userID uuid.UUID) ([]models.Game, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	games := []models.Game{}
	r, ok := s.db.users[userID]
	if !ok {
		return games, nil
	}
	for _, id := range r.favorites {
		if g, ok := s.db.games[id]; ok {
			games = append(games, g.bare())
		}
	}
	return games, nil
}

// AddFavoriteCategory is a no-op when the category is already a favorite.
func (s *UserStore) AddFavoriteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	return s.update("add favorite category", userID, func(r *userRow) error {
		if _, ok := s.db.categories[categoryID]; !ok {
			return fmt.Errorf("category %s does not exist", categoryID)
		}
		r.favoriteCats[categoryID] = true
		return nil
	})
}

func (s *UserStore) RemoveFavoriteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	return s.update("remove favorite category", userID, func(r *userRow) error {
		delete(r.favoriteCats, categoryID)
		return nil
	})
}

func (s *UserStore) FavoriteCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.users[userID]
	if !ok {
		return []models.Category{}, nil
	}
	return s.db.sortedCategories(true, func(c *categoryRow) bool { return r.favoriteCats[c.ID] }), nil
}

// PushRecentPlay prepends the play and keeps the newest entries.
func (s *UserStore) PushRecentPlay(ctx context.Context, userID, gameID uuid.UUID, playedAt time.Time) error {
	return s.update("push recent play", userID, func(r *userRow) error {
		list := append([]models.RecentPlay{{GameID: gameID, PlayedAt: playedAt.UTC()}}, r.recentlyPlayed...)
		if len(list) > models.RecentlyPlayedLimit {
			list = list[:models.RecentlyPlayedLimit]
		}
		r.recentlyPlayed = list
		return nil
	})
}

// RecentPlays returns the list newest first. Plays of deleted games are
// dropped.
func (s *UserStore) RecentPlays(ctx context.Context, userID uuid.UUID) ([]models.RecentPlay, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	plays := []models.RecentPlay{}
	r, ok := s.db.users[userID]
	if !ok {
		return plays, nil
	}
	for _, p := range r.recentlyPlayed {
		g, ok := s.db.games[p.GameID]
		if !ok {
			continue
		}
		game := g.bare()
		plays = append(plays, models.RecentPlay{GameID: p.GameID, PlayedAt: p.PlayedAt, Game: &game})
	}
	return plays, nil
}
