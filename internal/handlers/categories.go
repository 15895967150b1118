// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"jellyarcade/internal/models"
	"jellyarcade/internal/service"
)

// Categories serves the category endpoints.
type Categories struct {
	categories *service.CategoryService
}

// NewCategories creates the category handlers.
func NewCategories(categories *service.CategoryService) *Categories {
	return &Categories{categories: categories}
}

type categoryRequest struct {
	Name         requiredText  `json:"name"`
	Description  longText      `json:"description"`
	Keywords     keywordsInput `json:"keywords"`
	ParentID     *uuid.UUID    `json:"parentId"`
	IsActive     *bool         `json:"isActive"`
	IsNewGames   *bool         `json:"isNewGames"`
	IsMostPlayed *bool         `json:"isMostPlayed"`
}

func (c *categoryRequest) fillForm(f form) error {
	var err error
	c.Name = requiredText(f.localized("name"))
	c.Description = longText(f.localized("description"))
	if c.Keywords, err = f.keywords("keywords"); err != nil {
		return err
	}
	if c.ParentID, err = f.id("parentId"); err != nil {
		return err
	}
	return f.flags(map[string]**bool{
		"isActive":     &c.IsActive,
		"isNewGames":   &c.IsNewGames,
		"isMostPlayed": &c.IsMostPlayed,
	})
}

type categoryPatchRequest struct {
	Name         optionalText  `json:"name"`
	Description  longText      `json:"description"`
	Keywords     keywordsInput `json:"keywords"`
	IsActive     *bool         `json:"isActive"`
	IsNewGames   *bool         `json:"isNewGames"`
	IsMostPlayed *bool         `json:"isMostPlayed"`
}

func (c *categoryPatchRequest) fillForm(f form) error {
	var err error
	c.Name = optionalText(f.localized("name"))
	c.Description = longText(f.localized("description"))
	if c.Keywords, err = f.keywords("keywords"); err != nil {
		return err
	}
	return f.flags(map[string]**bool{
		"isActive":     &c.IsActive,
		"isNewGames":   &c.IsNewGames,
		"isMostPlayed": &c.IsMostPlayed,
	})
}

type reorderRequest struct {
	NewIndex *int       `json:"newIndex" validate:"required,min=0"`
	ParentID *uuid.UUID `json:"parentId"`
}

type moveRequest struct {
	NewParentID *uuid.UUID `json:"newParentId"`
	NewIndex    *int       `json:"newIndex" validate:"required,min=0"`
}

// List returns every category. With ?tree=true the categories are nested
// under their parents.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("tree") == "true" {
		tree, err := h.categories.Tree(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, r, http.StatusOK, tree)
		return
	}

	list, err := h.categories.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, list)
}

// NewGames returns the category flagged as the new games shelf.
func (h *Categories) NewGames(w http.ResponseWriter, r *http.Request) {
	h.byFlag(w, r, models.FlagNewGames)
}

// MostPlayed returns the category flagged as the most played shelf.
func (h *Categories) MostPlayed(w http.ResponseWriter, r *http.Request) {
	h.byFlag(w, r, models.FlagMostPlayed)
}

func (h *Categories) byFlag(w http.ResponseWriter, r *http.Request, flag models.CategoryFlag) {
	c, err := h.categories.ByFlag(r.Context(), flag)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if c == nil {
		respond(w, r, http.StatusOK, nil)
		return
	}
	respond(w, r, http.StatusOK, c.Localize(localeOf(r)))
}

// Get returns one category with both translations.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, c)
}

// Create adds a category at the end of its sibling set.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	image, err := bindUpload(w, r, &req, "image")
	if err != nil {
		respondError(w, r, err)
		return
	}

	c, err := h.categories.Create(r.Context(), service.CategoryInput{
		Name:         req.Name.localized(),
		Description:  req.Description.localized(),
		Keywords:     req.Keywords.list(),
		ParentID:     req.ParentID,
		IsActive:     req.IsActive,
		IsNewGames:   req.IsNewGames,
		IsMostPlayed: req.IsMostPlayed,
	}, image)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, c)
}

// Update applies a partial update and an optional new image.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req categoryPatchRequest
	image, err := bindUpload(w, r, &req, "image")
	if err != nil {
		respondError(w, r, err)
		return
	}

	c, err := h.categories.Update(r.Context(), id, service.CategoryPatch{
		Name:         req.Name.localized(),
		Description:  req.Description.localized(),
		Keywords:     req.Keywords.list(),
		IsActive:     req.IsActive,
		IsNewGames:   req.IsNewGames,
		IsMostPlayed: req.IsMostPlayed,
	}, image)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, c)
}

// Delete removes a category without children.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.categories.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, r, "category deleted")
}

// Reorder moves a category within its sibling set and returns the
// updated list.
func (h *Categories) Reorder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req reorderRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	list, err := h.categories.Reorder(r.Context(), id, *req.NewIndex, req.ParentID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, list)
}

// Move reparents a category and returns the updated list.
func (h *Categories) Move(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req moveRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	list, err := h.categories.Move(r.Context(), id, req.NewParentID, *req.NewIndex)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, list)
}
