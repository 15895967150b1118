// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"jellyarcade/internal/imaging"
	"jellyarcade/internal/models"
	"jellyarcade/internal/slug"
	"jellyarcade/internal/store"
)

// moveAttempts bounds how often Move retries when the category is moved
// by someone else between the read and the lock.
const moveAttempts = 3

// CategoryInput is the body of a category create.
type CategoryInput struct {
	Name         models.Localized
	Description  models.Localized
	Keywords     models.LocalizedList
	ParentID     *uuid.UUID
	IsActive     *bool
	IsNewGames   *bool
	IsMostPlayed *bool
}

// CategoryPatch is a partial category update. Blank translations and nil
// fields keep the current value. The parent is changed with Move.
type CategoryPatch struct {
	Name         models.Localized
	Description  models.Localized
	Keywords     models.LocalizedList
	IsActive     *bool
	IsNewGames   *bool
	IsMostPlayed *bool
}

// CategoryService manages the category forest.
type CategoryService struct {
	categories CategoryRepository
	media      Media
	locks      Locker
	cache      CategoryCache
}

// NewCategoryService wires a CategoryService. cache may be nil.
func NewCategoryService(categories CategoryRepository, media Media, locks Locker, cache CategoryCache) *CategoryService {
	return &CategoryService{categories: categories, media: media, locks: locks, cache: cache}
}

// List returns every category ordered by order.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	if s.cache != nil {
		if list, ok := s.cache.Categories(ctx); ok {
			return list, nil
		}
	}
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if list == nil {
		list = []models.Category{}
	}
	if s.cache != nil {
		s.cache.StoreCategories(ctx, list)
	}
	return list, nil
}

// Tree returns the whole forest nested by parent.
func (s *CategoryService) Tree(ctx context.Context) ([]models.CategoryNode, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildCategoryTree(list, nil), nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if c == nil {
		return nil, notFound("category")
	}
	return c, nil
}

// ByFlag returns the category carrying flag, or nil when none does.
func (s *CategoryService) ByFlag(ctx context.Context, flag models.CategoryFlag) (*models.Category, error) {
	c, err := s.categories.FindByFlag(ctx, flag)
	if err != nil {
		return nil, fmt.Errorf("find category by flag: %w", err)
	}
	return c, nil
}

// Create inserts a category at the end of its sibling set.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput, image []byte) (*models.Category, error) {
	if !in.Name.Complete() {
		return nil, validationError("category name is required in both languages")
	}
	base, err := slug.Base(in.Name, "")
	if err != nil {
		return nil, validationError("category name does not produce a usable slug")
	}
	if in.ParentID != nil {
		if _, err := s.Get(ctx, *in.ParentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, notFound("parent category")
			}
			return nil, err
		}
	}

	// Upload before taking the lock so the network call does not hold up
	// other writers of the same sibling set.
	var imageURL *string
	if len(image) > 0 {
		url, err := s.media.Upload(ctx, image, imaging.CategoryImage)
		if err != nil {
			return nil, newError(KindImageUpload, "category image upload failed", err)
		}
		imageURL = &url
	}

	c, err := s.insert(ctx, in, base, imageURL)
	if err != nil {
		if imageURL != nil {
			s.destroyQuietly(ctx, *imageURL)
		}
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

func (s *CategoryService) insert(ctx context.Context, in CategoryInput, base models.Localized, image *string) (*models.Category, error) {
	unlock, err := s.locks.Lock(ctx, parentScope(in.ParentID))
	if err != nil {
		return nil, fmt.Errorf("lock siblings: %w", err)
	}
	defer unlock()

	order, err := s.categories.NextSortOrder(ctx, in.ParentID)
	if err != nil {
		return nil, fmt.Errorf("next category order: %w", err)
	}
	slugs, err := slug.Resolve(ctx, base, s.slugTaken(nil))
	if err != nil {
		return nil, s.slugError(err)
	}

	c := &models.Category{
		Name:         in.Name,
		Slug:         slugs,
		Description:  in.Description,
		Keywords:     in.Keywords.Normalize(),
		Order:        order,
		ParentID:     in.ParentID,
		Image:        image,
		IsActive:     boolOr(in.IsActive, true),
		IsNewGames:   boolOr(in.IsNewGames, false),
		IsMostPlayed: boolOr(in.IsMostPlayed, false),
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, writeError("category", err)
	}
	return c, nil
}

// Update applies patch to a category. A new image replaces the old one,
// which is destroyed only after the new reference is stored.
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, patch CategoryPatch, image []byte) (*models.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := patch.Name.Merge(c.Name)
	if name != c.Name {
		if !name.Complete() {
			return nil, validationError("category name is required in both languages")
		}
		base, err := slug.Base(name, "")
		if err != nil {
			return nil, validationError("category name does not produce a usable slug")
		}
		slugs, err := slug.Resolve(ctx, base, s.slugTaken(&c.ID))
		if err != nil {
			return nil, s.slugError(err)
		}
		c.Name, c.Slug = name, slugs
	}
	c.Description = patch.Description.Merge(c.Description)
	c.Keywords = patch.Keywords.Merge(c.Keywords).Normalize()
	c.IsActive = boolOr(patch.IsActive, c.IsActive)
	c.IsNewGames = boolOr(patch.IsNewGames, c.IsNewGames)
	c.IsMostPlayed = boolOr(patch.IsMostPlayed, c.IsMostPlayed)

	var oldImage *string
	if len(image) > 0 {
		url, err := s.media.Upload(ctx, image, imaging.CategoryImage)
		if err != nil {
			return nil, newError(KindImageUpload, "category image upload failed", err)
		}
		oldImage, c.Image = c.Image, &url
	}

	if err := s.categories.Update(ctx, c); err != nil {
		if len(image) > 0 {
			s.destroyQuietly(ctx, *c.Image)
		}
		return nil, writeError("category", err)
	}
	if oldImage != nil {
		s.destroyQuietly(ctx, *oldImage)
	}
	s.invalidate(ctx)
	return c, nil
}

// Delete removes a leaf category and its image. Media failures abort the
// delete.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	hasChildren, err := s.categories.HasChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("check category children: %w", err)
	}
	if hasChildren {
		return &Error{Kind: KindHasChildren, Message: "category has subcategories; delete or move them first"}
	}
	if c.Image != nil {
		if err := s.media.Destroy(ctx, *c.Image); err != nil {
			return fmt.Errorf("destroy category image: %w", err)
		}
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// Reorder moves a category to newIndex within its current sibling set and
// renumbers the set to 0..n-1. parentID must be the category's parent.
func (s *CategoryService) Reorder(ctx context.Context, id uuid.UUID, newIndex int, parentID *uuid.UUID) ([]models.Category, error) {
	unlock, err := s.locks.Lock(ctx, parentScope(parentID))
	if err != nil {
		return nil, fmt.Errorf("lock siblings: %w", err)
	}
	defer unlock()

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.SameParent(c.ParentID, parentID) {
		return nil, validationError("category is not a child of the given parent; use move to change parents")
	}

	siblings, err := s.categories.Children(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list sibling categories: %w", err)
	}
	ids := insertAt(categoryIDs(siblings), id, newIndex)
	if err := s.categories.Reposition(ctx, renumber(ids, parentID)); err != nil {
		return nil, fmt.Errorf("reposition categories: %w", err)
	}
	s.invalidate(ctx)
	return s.List(ctx)
}

// Move reparents a category under newParentID (nil for the root level) at
// newIndex. Both the old and the new sibling sets are renumbered.
func (s *CategoryService) Move(ctx context.Context, id uuid.UUID, newParentID *uuid.UUID, newIndex int) ([]models.Category, error) {
	if newParentID != nil && *newParentID == id {
		return nil, &Error{Kind: KindCyclicRelationship, Message: "a category cannot be its own parent"}
	}
	if newParentID != nil {
		if _, err := s.Get(ctx, *newParentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, notFound("target parent category")
			}
			return nil, err
		}
	}

	for attempt := 0; attempt < moveAttempts; attempt++ {
		c, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		done, err := s.moveLocked(ctx, c.ParentID, id, newParentID, newIndex)
		if err != nil {
			return nil, err
		}
		if done {
			s.invalidate(ctx)
			return s.List(ctx)
		}
	}
	return nil, &Error{Kind: KindConflict, Message: "category was moved concurrently, retry"}
}

// moveLocked performs the move holding both parent scopes. It returns
// false when the category no longer sits under oldParentID.
func (s *CategoryService) moveLocked(ctx context.Context, oldParentID *uuid.UUID, id uuid.UUID, newParentID *uuid.UUID, newIndex int) (bool, error) {
	unlock, err := lockAll(ctx, s.locks, parentScope(oldParentID), parentScope(newParentID))
	if err != nil {
		return false, fmt.Errorf("lock siblings: %w", err)
	}
	defer unlock()

	all, err := s.categories.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list categories: %w", err)
	}
	arena := arenaOf(all)
	c, ok := arena[id]
	if !ok {
		return false, notFound("category")
	}
	if !models.SameParent(c.ParentID, oldParentID) {
		return false, nil
	}
	if newParentID != nil {
		if _, ok := arena[*newParentID]; !ok {
			return false, notFound("target parent category")
		}
	}
	if createsCycle(arena, id, newParentID) {
		return false, &Error{Kind: KindCyclicRelationship, Message: "cannot move a category under one of its descendants"}
	}

	target, err := s.categories.Children(ctx, newParentID)
	if err != nil {
		return false, fmt.Errorf("list target siblings: %w", err)
	}
	positions := renumber(insertAt(categoryIDs(target), id, newIndex), newParentID)

	if !models.SameParent(oldParentID, newParentID) {
		old, err := s.categories.Children(ctx, oldParentID)
		if err != nil {
			return false, fmt.Errorf("list source siblings: %w", err)
		}
		positions = append(positions, renumber(withoutID(categoryIDs(old), id), oldParentID)...)
	}

	if err := s.categories.Reposition(ctx, positions); err != nil {
		return false, fmt.Errorf("reposition categories: %w", err)
	}
	return true, nil
}

func (s *CategoryService) slugTaken(exclude *uuid.UUID) slug.TakenFunc {
	return func(ctx context.Context, loc models.Locale, candidate string) (bool, error) {
		return s.categories.SlugTaken(ctx, loc, candidate, exclude)
	}
}

func (s *CategoryService) slugError(err error) error {
	if errors.Is(err, slug.ErrExhausted) {
		return &Error{Kind: KindConflict, Message: "no free slug for this name", Err: err}
	}
	return fmt.Errorf("resolve category slug: %w", err)
}

func (s *CategoryService) destroyQuietly(ctx context.Context, url string) {
	if err := s.media.Destroy(ctx, url); err != nil {
		slog.Warn("destroy category image", "url", url, "error", err)
	}
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// writeError maps a unique violation to a retryable Conflict.
func writeError(what string, err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return &Error{Kind: KindConflict, Message: "a " + what + " with this slug already exists, retry", Err: err}
	}
	return fmt.Errorf("save %s: %w", what, err)
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
