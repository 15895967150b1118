// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"jellyarcade/internal/models"
)

// CategoryStore is the in-memory category repository.
type CategoryStore struct {
	db *DB
}

func cloneCategory(c models.Category) models.Category {
	c.ParentID = cloneUUID(c.ParentID)
	c.Image = cloneString(c.Image)
	c.Keywords = cloneList(c.Keywords)
	return c
}

func (r *categoryRow) clone() models.Category { return cloneCategory(r.Category) }

// sortedCategories returns rows matching keep ordered by order, then by
// Turkish name when byName is set, then by insertion.
func (db *DB) sortedCategories(byName bool, keep func(*categoryRow) bool) []models.Category {
	rows := make([]*categoryRow, 0, len(db.categories))
	for _, r := range db.categories {
		if keep == nil || keep(r) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if byName && a.Name.TR != b.Name.TR {
			return a.Name.TR < b.Name.TR
		}
		return a.seq < b.seq
	})
	out := make([]models.Category, len(rows))
	for i, r := range rows {
		out[i] = r.clone()
	}
	return out
}

func (db *DB) categorySlugTaken(loc models.Locale, slug string, exclude uuid.UUID) bool {
	for id, r := range db.categories {
		if id != exclude && r.Slug.Get(loc) == slug {
			return true
		}
	}
	return false
}

func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.categories[id]
	if !ok {
		return nil, nil
	}
	c := r.clone()
	return &c, nil
}

func (s *CategoryStore) FindByFlag(ctx context.Context, flag models.CategoryFlag) (*models.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var keep func(*categoryRow) bool
	switch flag {
	case models.FlagNewGames:
		keep = func(r *categoryRow) bool { return r.IsNewGames }
	case models.FlagMostPlayed:
		keep = func(r *categoryRow) bool { return r.IsMostPlayed }
	default:
		return nil, fmt.Errorf("find category by flag: unknown flag %q", flag)
	}
	list := s.db.sortedCategories(false, keep)
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.sortedCategories(true, nil), nil
}

func (s *CategoryStore) Children(ctx context.Context, parentID *uuid.UUID) ([]models.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.sortedCategories(false, func(r *categoryRow) bool {
		return models.SameParent(r.ParentID, parentID)
	}), nil
}

func (s *CategoryStore) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	seen := make(map[uuid.UUID]bool, len(ids))
	n := 0
	for _, id := range ids {
		if _, ok := s.db.categories[id]; ok && !seen[id] {
			seen[id] = true
			n++
		}
	}
	return n, nil
}

func (s *CategoryStore) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.hasChildren(id), nil
}

func (db *DB) hasChildren(id uuid.UUID) bool {
	for _, r := range db.categories {
		if r.ParentID != nil && *r.ParentID == id {
			return true
		}
	}
	return false
}

func (s *CategoryStore) SlugTaken(ctx context.Context, loc models.Locale, slug string, exclude *uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var ex uuid.UUID
	if exclude != nil {
		ex = *exclude
	}
	return s.db.categorySlugTaken(loc, slug, ex), nil
}

func (s *CategoryStore) NextSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	next := 0
	for _, r := range s.db.categories {
		if models.SameParent(r.ParentID, parentID) && r.Order+1 > next {
			next = r.Order + 1
		}
	}
	return next, nil
}

func (s *CategoryStore) Create(ctx context.Context, c *models.Category) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := s.db.checkCategorySlugs(c.Slug, uuid.Nil); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	if c.ParentID != nil {
		if _, ok := s.db.categories[*c.ParentID]; !ok {
			return fmt.Errorf("create category: parent %s does not exist", *c.ParentID)
		}
	}

	now := s.db.now()
	c.ID = uuid.New()
	c.Keywords = c.Keywords.Normalize()
	c.CreatedAt, c.UpdatedAt = now, now
	s.db.categories[c.ID] = &categoryRow{Category: cloneCategory(*c), seq: s.db.next()}
	return nil
}

func (db *DB) checkCategorySlugs(slug models.Localized, exclude uuid.UUID) error {
	if db.categorySlugTaken(models.LocaleTR, slug.TR, exclude) {
		return duplicate("insert category", "categories_slug_tr_key")
	}
	if db.categorySlugTaken(models.LocaleEN, slug.EN, exclude) {
		return duplicate("insert category", "categories_slug_en_key")
	}
	return nil
}

// Update writes every field except parent and order.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	r, ok := s.db.categories[c.ID]
	if !ok {
		return fmt.Errorf("update category: %w", errNoRow)
	}
	if err := s.db.checkCategorySlugs(c.Slug, c.ID); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	c.UpdatedAt = s.db.now()
	parent, order, created := r.ParentID, r.Order, r.CreatedAt
	r.Category = cloneCategory(*c)
	r.ParentID, r.Order, r.CreatedAt = parent, order, created
	return nil
}

// Reposition applies every position at once. Unknown ids are ignored.
func (s *CategoryStore) Reposition(ctx context.Context, positions []models.CategoryPosition) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, p := range positions {
		if p.ParentID != nil {
			if _, ok := s.db.categories[*p.ParentID]; !ok {
				return fmt.Errorf("reposition category %s: parent %s does not exist", p.ID, *p.ParentID)
			}
		}
	}
	now := s.db.now()
	for _, p := range positions {
		r, ok := s.db.categories[p.ID]
		if !ok {
			continue
		}
		r.ParentID = cloneUUID(p.ParentID)
		r.Order = p.Order
		r.UpdatedAt = now
	}
	return nil
}

// Delete removes a category and its game links. A category with children
// is rejected.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if s.db.hasChildren(id) {
		return fmt.Errorf("delete category: %s still has children", id)
	}
	delete(s.db.categories, id)
	for _, g := range s.db.games {
		delete(g.links, id)
	}
	for _, u := range s.db.users {
		delete(u.favoriteCats, id)
	}
	return nil
}
