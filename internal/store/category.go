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

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, slug_tr, slug_en, description, keywords, sort_order, parent_id,
	image, is_active, is_new_games, is_most_played, created_at, updated_at`

// categoryDest returns the scan destinations matching categoryColumns.
func categoryDest(c *models.Category) []any {
	return []any{
		&c.ID, &c.Name, &c.Slug.TR, &c.Slug.EN, &c.Description, &c.Keywords,
		&c.Order, &c.ParentID, &c.Image, &c.IsActive, &c.IsNewGames, &c.IsMostPlayed,
		&c.CreatedAt, &c.UpdatedAt,
	}
}

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	if err := scanner.Scan(categoryDest(&c)...); err != nil {
		return nil, err
	}
	c.Keywords = c.Keywords.Normalize()
	return &c, nil
}

func (s *CategoryStore) queryCategories(ctx context.Context, query string, args ...any) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

func (s *CategoryStore) findOne(ctx context.Context, op, where string, args ...any) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE `+where+` LIMIT 1`, args...)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.findOne(ctx, "find category by id", `id = $1`, id)
}

// FindByFlag returns the most recently updated category carrying flag.
// Returns nil if none does.
func (s *CategoryStore) FindByFlag(ctx context.Context, flag models.CategoryFlag) (*models.Category, error) {
	switch flag {
	case models.FlagNewGames, models.FlagMostPlayed:
	default:
		return nil, fmt.Errorf("find category by flag: unknown flag %q", flag)
	}
	return s.findOne(ctx, "find category by flag", string(flag)+` ORDER BY updated_at DESC`)
}

// List returns all categories ordered by sort_order, then Turkish name.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	items, err := s.queryCategories(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY sort_order, name->>'tr'`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

// Children returns the categories directly under parentID (roots when nil)
// ordered by sort_order.
func (s *CategoryStore) Children(ctx context.Context, parentID *uuid.UUID) ([]models.Category, error) {
	var (
		items []models.Category
		err   error
	)
	if parentID == nil {
		items, err = s.queryCategories(ctx, `SELECT `+categoryColumns+` FROM categories
			WHERE parent_id IS NULL ORDER BY sort_order, created_at`)
	} else {
		items, err = s.queryCategories(ctx, `SELECT `+categoryColumns+` FROM categories
			WHERE parent_id = $1 ORDER BY sort_order, created_at`, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("list child categories: %w", err)
	}
	return items, nil
}

// CountExisting returns how many of ids exist.
func (s *CategoryStore) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE id = ANY($1::uuid[])`, uuidArray(ids)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// HasChildren reports whether any category has id as parent.
func (s *CategoryStore) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE parent_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check child categories: %w", err)
	}
	return exists, nil
}

// SlugTaken reports whether slug is used in loc by a category other than exclude.
func (s *CategoryStore) SlugTaken(ctx context.Context, loc models.Locale, slug string, exclude *uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories
		WHERE `+slugColumn(string(loc))+` = $1 AND ($2::uuid IS NULL OR id <> $2::uuid))`,
		slug, exclude,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check category slug: %w", err)
	}
	return exists, nil
}

// NextSortOrder returns the next sort_order value for a given parent.
func (s *CategoryStore) NextSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error) {
	var maxOrder sql.NullInt64
	var err error
	if parentID == nil {
		err = s.db.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM categories WHERE parent_id IS NULL`).Scan(&maxOrder)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM categories WHERE parent_id = $1`, *parentID).Scan(&maxOrder)
	}
	if err != nil {
		return 0, fmt.Errorf("next category order: %w", err)
	}
	if maxOrder.Valid {
		return int(maxOrder.Int64) + 1, nil
	}
	return 0, nil
}

// Create inserts a new category and fills in its ID and timestamps.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) error {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug_tr, slug_en, description, keywords, sort_order,
			parent_id, image, is_active, is_new_games, is_most_played)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+categoryColumns,
		c.Name, c.Slug.TR, c.Slug.EN, c.Description, c.Keywords, c.Order,
		c.ParentID, c.Image, c.IsActive, c.IsNewGames, c.IsMostPlayed,
	)
	created, err := scanCategory(row)
	if err != nil {
		return wrapWrite("create category", err)
	}
	*c = *created
	return nil
}

// Update modifies an existing category. Parent and order are left to
// Reposition.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	err := s.db.QueryRowContext(ctx, `
		UPDATE categories SET
			name = $1, slug_tr = $2, slug_en = $3, description = $4, keywords = $5,
			image = $6, is_active = $7, is_new_games = $8, is_most_played = $9,
			updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`, c.Name, c.Slug.TR, c.Slug.EN, c.Description, c.Keywords,
		c.Image, c.IsActive, c.IsNewGames, c.IsMostPlayed, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return wrapWrite("update category", err)
	}
	return nil
}

// Reposition updates sort_order and parent_id for multiple categories in a transaction.
func (s *CategoryStore) Reposition(ctx context.Context, positions []models.CategoryPosition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE categories SET parent_id = $1, sort_order = $2, updated_at = $3
		WHERE id = $4`)
	if err != nil {
		return fmt.Errorf("prepare reposition: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range positions {
		if _, err := stmt.ExecContext(ctx, p.ParentID, p.Order, now, p.ID); err != nil {
			return fmt.Errorf("reposition category %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// Delete removes a category by ID. Game links cascade; a category that
// still has children is rejected by the foreign key.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
