// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jellyarcade/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, name, email, password_hash, role, avatar, google_id, facebook_id, created_at, updated_at`

// scanUser scans a row into a User struct. Nullable email and password
// map to empty strings.
func scanUser(scanner interface{ Scan(...any) error }) (*models.User, error) {
	var (
		u     models.User
		email sql.NullString
		hash  sql.NullString
	)
	err := scanner.Scan(
		&u.ID, &u.Name, &email, &hash, &u.Role, &u.Avatar,
		&u.GoogleID, &u.FacebookID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Email, u.PasswordHash = email.String, hash.String
	return &u, nil
}

func (s *UserStore) findOne(ctx context.Context, op, where string, args ...any) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, args...)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, "find user by id", `id = $1`, id)
}

// FindByEmail retrieves a user by their email address. Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, nil
	}
	return s.findOne(ctx, "find user by email", `email = $1`, email)
}

// FindByProvider retrieves a user by external provider id. Returns nil if
// not found.
func (s *UserStore) FindByProvider(ctx context.Context, p models.Provider, externalID string) (*models.User, error) {
	column, err := providerColumn(p)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, "find user by provider", column+` = $1`, externalID)
}

func providerColumn(p models.Provider) (string, error) {
	switch p {
	case models.ProviderGoogle:
		return "google_id", nil
	case models.ProviderFacebook:
		return "facebook_id", nil
	}
	return "", fmt.Errorf("unknown provider %q", p)
}

// List returns all users ordered by creation date.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Count returns the number of users.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Create inserts a user and fills in its ID and timestamps. The password
// must already be hashed.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, avatar, google_id, facebook_id)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7)
		RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Avatar, u.GoogleID, u.FacebookID,
	)
	created, err := scanUser(row)
	if err != nil {
		return wrapWrite("create user", err)
	}
	*u = *created
	return nil
}

// LinkProvider attaches an external provider id to an existing account.
func (s *UserStore) LinkProvider(ctx context.Context, id uuid.UUID, p models.Provider, externalID string) error {
	column, err := providerColumn(p)
	if err != nil {
		return err
	}
	return s.exec(ctx, "link provider", `UPDATE users SET `+column+` = $1, updated_at = NOW() WHERE id = $2`, externalID, id)
}

// UpdateName renames a user.
func (s *UserStore) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	return s.exec(ctx, "update user name", `UPDATE users SET name = $1, updated_at = NOW() WHERE id = $2`, name, id)
}

// UpdatePassword stores a new password hash.
func (s *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return s.exec(ctx, "update password", `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
}

// UpdateAvatar stores a new avatar URL.
func (s *UserStore) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error {
	return s.exec(ctx, "update avatar", `UPDATE users SET avatar = $1, updated_at = NOW() WHERE id = $2`, avatar, id)
}

// AddFavorite adds a game to the user's favorites. Adding twice is a no-op.
func (s *UserStore) AddFavorite(ctx context.Context, userID, gameID uuid.UUID) error {
	return s.exec(ctx, "add favorite", `
		INSERT INTO user_favorites (user_id, game_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, gameID)
}

// RemoveFavorite removes a game from the user's favorites.
func (s *UserStore) RemoveFavorite(ctx context.Context, userID, gameID uuid.UUID) error {
	return s.exec(ctx, "remove favorite", `DELETE FROM user_favorites WHERE user_id = $1 AND game_id = $2`, userID, gameID)
}

// Favorites returns the user's favorite games in the order they were added.
// Categories are not attached.
func (s *UserStore) Favorites(ctx context.Context, userID uuid.UUID) ([]models.Game, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualify("g", gameColumns)+`
		FROM user_favorites f
		JOIN games g ON g.id = f.game_id
		WHERE f.user_id = $1
		ORDER BY f.created_at, g.sort_order`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// AddFavoriteCategory adds a category to the user's favorites. Adding
// twice is a no-op.
func (s *UserStore) AddFavoriteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	return s.exec(ctx, "add favorite category", `
		INSERT INTO user_favorite_categories (user_id, category_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, categoryID)
}

// RemoveFavoriteCategory removes a category from the user's favorites.
func (s *UserStore) RemoveFavoriteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	return s.exec(ctx, "remove favorite category", `
		DELETE FROM user_favorite_categories WHERE user_id = $1 AND category_id = $2`, userID, categoryID)
}

// FavoriteCategories returns the user's favorite categories.
func (s *UserStore) FavoriteCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualify("c", categoryColumns)+`
		FROM user_favorite_categories f
		JOIN categories c ON c.id = f.category_id
		WHERE f.user_id = $1
		ORDER BY c.sort_order, c.name->>'tr'`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorite categories: %w", err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// PushRecentPlay prepends a play to recently_played and keeps the newest
// entries, all in one UPDATE so concurrent plays cannot lose each other.
func (s *UserStore) PushRecentPlay(ctx context.Context, userID, gameID uuid.UUID, playedAt time.Time) error {
	return s.exec(ctx, "push recent play", `
		UPDATE users SET
			recently_played = (
				SELECT COALESCE(jsonb_agg(t.e ORDER BY t.ord), '[]'::jsonb)
				FROM (
					SELECT e, ord
					FROM jsonb_array_elements(
						jsonb_build_array(jsonb_build_object('gameId', $2::text, 'playedAt', $3::timestamptz))
						|| recently_played
					) WITH ORDINALITY AS a(e, ord)
					ORDER BY ord
					LIMIT $4
				) t
			),
			updated_at = NOW()
		WHERE id = $1`,
		userID, gameID.String(), playedAt.UTC(), models.RecentlyPlayedLimit)
}

// RecentPlays returns the recently played list newest first with games
// attached. Plays of deleted games are dropped.
func (s *UserStore) RecentPlays(ctx context.Context, userID uuid.UUID) ([]models.RecentPlay, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT (a.e->>'playedAt')::timestamptz, `+qualify("g", gameColumns)+`
		FROM users u
		CROSS JOIN LATERAL jsonb_array_elements(u.recently_played) WITH ORDINALITY AS a(e, ord)
		JOIN games g ON g.id = (a.e->>'gameId')::uuid
		WHERE u.id = $1
		ORDER BY a.ord`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recent plays: %w", err)
	}
	defer rows.Close()

	plays := []models.RecentPlay{}
	for rows.Next() {
		var (
			playedAt time.Time
			g        models.Game
		)
		dest := append([]any{&playedAt}, gameDest(&g)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan recent play: %w", err)
		}
		g.Keywords = g.Keywords.Normalize()
		plays = append(plays, models.RecentPlay{GameID: g.ID, PlayedAt: playedAt, Game: &g})
	}
	return plays, rows.Err()
}

func (s *UserStore) exec(ctx context.Context, op, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapWrite(op, err)
	}
	return nil
}
