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

// GameStore manages games and their category links in the database.
type GameStore struct {
	db *sql.DB
}

// NewGameStore returns a new GameStore.
func NewGameStore(db *sql.DB) *GameStore {
	return &GameStore{db: db}
}

const gameColumns = `id, title, slug_tr, slug_en, description, keywords, instant_link, image,
	orientation, is_new, is_popular, is_active, is_showcased, play_count, sort_order,
	created_at, updated_at`

// gameDest returns the scan destinations matching gameColumns.
func gameDest(g *models.Game) []any {
	return []any{
		&g.ID, &g.Title, &g.Slug.TR, &g.Slug.EN, &g.Description, &g.Keywords,
		&g.InstantLink, &g.Image, &g.Orientation, &g.IsNew, &g.IsPopular,
		&g.IsActive, &g.IsShowcased, &g.PlayCount, &g.Order, &g.CreatedAt, &g.UpdatedAt,
	}
}

// scanGame scans a row into a Game struct.
func scanGame(scanner interface{ Scan(...any) error }) (*models.Game, error) {
	var g models.Game
	if err := scanner.Scan(gameDest(&g)...); err != nil {
		return nil, err
	}
	g.Keywords = g.Keywords.Normalize()
	return &g, nil
}

// queryGames runs query and attaches categories to every result.
func (s *GameStore) queryGames(ctx context.Context, query string, args ...any) ([]models.Game, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachCategories(ctx, games); err != nil {
		return nil, err
	}
	return games, nil
}

// attachCategories loads the category links of games in one query.
func (s *GameStore) attachCategories(ctx context.Context, games []models.Game) error {
	if len(games) == 0 {
		return nil
	}
	index := make(map[uuid.UUID]int, len(games))
	ids := make([]uuid.UUID, len(games))
	for i := range games {
		index[games[i].ID] = i
		ids[i] = games[i].ID
		games[i].CategoryIDs = []uuid.UUID{}
		games[i].CategoryOrder = map[uuid.UUID]int{}
		games[i].Categories = []models.Category{}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT gc.game_id, gc.position, `+qualify("c", categoryColumns)+`
		FROM game_categories gc
		JOIN categories c ON c.id = gc.category_id
		WHERE gc.game_id = ANY($1::uuid[])
		ORDER BY c.sort_order, c.name->>'tr'`, uuidArray(ids))
	if err != nil {
		return fmt.Errorf("load game categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			gameID   uuid.UUID
			position sql.NullInt64
			c        models.Category
		)
		dest := append([]any{&gameID, &position}, categoryDest(&c)...)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan game category: %w", err)
		}
		c.Keywords = c.Keywords.Normalize()
		g := &games[index[gameID]]
		g.CategoryIDs = append(g.CategoryIDs, c.ID)
		g.Categories = append(g.Categories, c)
		if position.Valid {
			g.CategoryOrder[c.ID] = int(position.Int64)
		}
	}
	return rows.Err()
}

func (s *GameStore) findOne(ctx context.Context, op, where string, args ...any) (*models.Game, error) {
	games, err := s.queryGames(ctx, `SELECT `+gameColumns+` FROM games WHERE `+where+` LIMIT 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(games) == 0 {
		return nil, nil
	}
	return &games[0], nil
}

// FindByID retrieves a game by ID. Returns nil if not found.
func (s *GameStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return s.findOne(ctx, "find game by id", `id = $1`, id)
}

// FindBySlug retrieves a game by its Turkish or English slug. Returns nil
// if not found.
func (s *GameStore) FindBySlug(ctx context.Context, slug string) (*models.Game, error) {
	return s.findOne(ctx, "find game by slug", `slug_tr = $1 OR slug_en = $1`, slug)
}

// List returns games ordered by sort_order, optionally limited to one category.
func (s *GameStore) List(ctx context.Context, f models.GameFilter) ([]models.Game, error) {
	var (
		games []models.Game
		err   error
	)
	if f.CategoryID != nil {
		games, err = s.queryGames(ctx, `SELECT `+gameColumns+` FROM games
			WHERE id IN (SELECT game_id FROM game_categories WHERE category_id = $1)
			ORDER BY sort_order, created_at`, *f.CategoryID)
	} else {
		games, err = s.queryGames(ctx, `SELECT `+gameColumns+` FROM games ORDER BY sort_order, created_at`)
	}
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// ListByCategory returns the games of a category by per-category position.
// Unpositioned games follow, in global order.
func (s *GameStore) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Game, error) {
	games, err := s.queryGames(ctx, `
		SELECT `+qualify("g", gameColumns)+`
		FROM games g
		JOIN game_categories gc ON gc.game_id = g.id
		WHERE gc.category_id = $1
		ORDER BY gc.position NULLS LAST, g.sort_order, g.created_at`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list games by category: %w", err)
	}
	return games, nil
}

// Showcased returns the newest showcased games.
func (s *GameStore) Showcased(ctx context.Context, limit int) ([]models.Game, error) {
	games, err := s.queryGames(ctx, `SELECT `+gameColumns+` FROM games
		WHERE is_showcased ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list showcased games: %w", err)
	}
	return games, nil
}

// MostPlayed returns games by descending play count.
func (s *GameStore) MostPlayed(ctx context.Context, limit int) ([]models.Game, error) {
	games, err := s.queryGames(ctx, `SELECT `+gameColumns+` FROM games
		ORDER BY play_count DESC, created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list most played games: %w", err)
	}
	return games, nil
}

// Search matches q as a literal, case-insensitive substring of the title,
// description or any keyword in loc.
func (s *GameStore) Search(ctx context.Context, loc models.Locale, q string, limit int) ([]models.Game, error) {
	pattern := "%" + escapeLike(q) + "%"
	games, err := s.queryGames(ctx, `SELECT `+gameColumns+` FROM games
		WHERE title->>$1::text ILIKE $2 ESCAPE '\'
		   OR description->>$1::text ILIKE $2 ESCAPE '\'
		   OR EXISTS (
		       SELECT 1 FROM jsonb_array_elements_text(COALESCE(keywords->$1::text, '[]'::jsonb)) k
		       WHERE k ILIKE $2 ESCAPE '\')
		ORDER BY play_count DESC, sort_order
		LIMIT $3`, string(loc), pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search games: %w", err)
	}
	return games, nil
}

// SlugTaken reports whether slug is used in loc by a game other than exclude.
func (s *GameStore) SlugTaken(ctx context.Context, loc models.Locale, slug string, exclude *uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM games
		WHERE `+slugColumn(string(loc))+` = $1 AND ($2::uuid IS NULL OR id <> $2::uuid))`,
		slug, exclude,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check game slug: %w", err)
	}
	return exists, nil
}

// NextSortOrder returns the sort_order that appends a game to the listing.
func (s *GameStore) NextSortOrder(ctx context.Context) (int, error) {
	var maxOrder sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM games`).Scan(&maxOrder); err != nil {
		return 0, fmt.Errorf("next game order: %w", err)
	}
	if maxOrder.Valid {
		return int(maxOrder.Int64) + 1, nil
	}
	return 0, nil
}

// Create inserts a game with its category links in a transaction and fills
// in its ID and timestamps.
func (s *GameStore) Create(ctx context.Context, g *models.Game) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO games (title, slug_tr, slug_en, description, keywords, instant_link, image,
			orientation, is_new, is_popular, is_active, is_showcased, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, play_count, created_at, updated_at`,
		g.Title, g.Slug.TR, g.Slug.EN, g.Description, g.Keywords, g.InstantLink, g.Image,
		g.Orientation, g.IsNew, g.IsPopular, g.IsActive, g.IsShowcased, g.Order,
	).Scan(&g.ID, &g.PlayCount, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return wrapWrite("create game", err)
	}
	if err := linkCategories(ctx, tx, g); err != nil {
		return err
	}
	return tx.Commit()
}

// Update modifies a game and syncs its category links. play_count is
// never written here.
func (s *GameStore) Update(ctx context.Context, g *models.Game) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		UPDATE games SET
			title = $1, slug_tr = $2, slug_en = $3, description = $4, keywords = $5,
			instant_link = $6, image = $7, orientation = $8, is_new = $9, is_popular = $10,
			is_active = $11, is_showcased = $12, updated_at = NOW()
		WHERE id = $13
		RETURNING updated_at`,
		g.Title, g.Slug.TR, g.Slug.EN, g.Description, g.Keywords,
		g.InstantLink, g.Image, g.Orientation, g.IsNew, g.IsPopular,
		g.IsActive, g.IsShowcased, g.ID,
	).Scan(&g.UpdatedAt)
	if err != nil {
		return wrapWrite("update game", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM game_categories WHERE game_id = $1 AND NOT (category_id = ANY($2::uuid[]))`,
		g.ID, uuidArray(g.CategoryIDs),
	); err != nil {
		return fmt.Errorf("unlink game categories: %w", err)
	}
	if err := linkCategories(ctx, tx, g); err != nil {
		return err
	}
	return tx.Commit()
}

// linkCategories inserts the missing category links of g, keeping the
// position of links that already exist.
func linkCategories(ctx context.Context, tx *sql.Tx, g *models.Game) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO game_categories (game_id, category_id, position)
		VALUES ($1, $2, $3)
		ON CONFLICT (game_id, category_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare link categories: %w", err)
	}
	defer stmt.Close()

	for _, cid := range g.CategoryIDs {
		var position *int
		if p, ok := g.CategoryOrder[cid]; ok {
			position = &p
		}
		if _, err := stmt.ExecContext(ctx, g.ID, cid, position); err != nil {
			return fmt.Errorf("link game category %s: %w", cid, err)
		}
	}
	return nil
}

// Delete removes a game. Category links, favorites and notification
// references are cleaned up by foreign keys.
func (s *GameStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}

// IncrementPlayCount atomically adds one play and returns the new count.
func (s *GameStore) IncrementPlayCount(ctx context.Context, id uuid.UUID) (int64, bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE games SET play_count = play_count + 1 WHERE id = $1 RETURNING play_count`, id,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("increment play count: %w", err)
	}
	return count, true, nil
}

// UpdateOrder writes sort_order for every item in one transaction and
// returns the ids that matched no game.
func (s *GameStore) UpdateOrder(ctx context.Context, batch []models.OrderUpdate) ([]uuid.UUID, error) {
	return s.applyBatch(ctx, `UPDATE games SET sort_order = $1, updated_at = $2 WHERE id = $3`,
		batch, func(u models.OrderUpdate, now time.Time) []any { return []any{u.Order, now, u.ID} })
}

// UpdateCategoryOrder writes the per-category position for every item and
// returns the ids that are not linked to the category.
func (s *GameStore) UpdateCategoryOrder(ctx context.Context, categoryID uuid.UUID, batch []models.OrderUpdate) ([]uuid.UUID, error) {
	return s.applyBatch(ctx, `UPDATE game_categories SET position = $1 WHERE game_id = $2 AND category_id = $3`,
		batch, func(u models.OrderUpdate, _ time.Time) []any { return []any{u.Order, u.ID, categoryID} })
}

func (s *GameStore) applyBatch(ctx context.Context, query string, batch []models.OrderUpdate, args func(models.OrderUpdate, time.Time) []any) ([]uuid.UUID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare order update: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	skipped := []uuid.UUID{}
	for _, u := range batch {
		res, err := stmt.ExecContext(ctx, args(u, now)...)
		if err != nil {
			return nil, fmt.Errorf("update order of game %s: %w", u.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			skipped = append(skipped, u.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order update: %w", err)
	}
	return skipped, nil
}
