// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"jellyarcade/internal/middleware"
	"jellyarcade/internal/models"
	"jellyarcade/internal/service"
)

// Games serves the game endpoints.
type Games struct {
	games *service.GameService
}

// NewGames creates the game handlers.
func NewGames(games *service.GameService) *Games {
	return &Games{games: games}
}

type gameRequest struct {
	Title       requiredText       `json:"title"`
	Description longText           `json:"description"`
	Keywords    keywordsInput      `json:"keywords"`
	CategoryIDs []uuid.UUID        `json:"categories" validate:"required,min=1,dive,required"`
	InstantLink string             `json:"instantLink" validate:"required,url,max=2000"`
	Orientation models.Orientation `json:"orientation" validate:"omitempty,oneof=horizontal vertical"`
	IsNew       *bool              `json:"isNew"`
	IsPopular   *bool              `json:"isPopular"`
	IsActive    *bool              `json:"isActive"`
	IsShowcased *bool              `json:"isShowcased"`
}

func (g *gameRequest) fillForm(f form) error {
	var err error
	g.Title = requiredText(f.localized("title"))
	g.Description = longText(f.localized("description"))
	g.InstantLink = f.text("instantLink")
	g.Orientation = models.Orientation(f.text("orientation"))
	if g.Keywords, err = f.keywords("keywords"); err != nil {
		return err
	}
	if g.CategoryIDs, err = f.ids("categories"); err != nil {
		return err
	}
	return f.flags(map[string]**bool{
		"isNew":       &g.IsNew,
		"isPopular":   &g.IsPopular,
		"isActive":    &g.IsActive,
		"isShowcased": &g.IsShowcased,
	})
}

type gamePatchRequest struct {
	Title       optionalText       `json:"title"`
	Description longText           `json:"description"`
	Keywords    keywordsInput      `json:"keywords"`
	CategoryIDs []uuid.UUID        `json:"categories" validate:"omitempty,min=1,dive,required"`
	InstantLink string             `json:"instantLink" validate:"omitempty,url,max=2000"`
	Orientation models.Orientation `json:"orientation" validate:"omitempty,oneof=horizontal vertical"`
	IsNew       *bool              `json:"isNew"`
	IsPopular   *bool              `json:"isPopular"`
	IsActive    *bool              `json:"isActive"`
	IsShowcased *bool              `json:"isShowcased"`
}

func (g *gamePatchRequest) fillForm(f form) error {
	var full gameRequest
	if err := full.fillForm(f); err != nil {
		return err
	}
	*g = gamePatchRequest{
		Title:       optionalText(full.Title),
		Description: full.Description,
		Keywords:    full.Keywords,
		CategoryIDs: full.CategoryIDs,
		InstantLink: full.InstantLink,
		Orientation: full.Orientation,
		IsNew:       full.IsNew,
		IsPopular:   full.IsPopular,
		IsActive:    full.IsActive,
		IsShowcased: full.IsShowcased,
	}
	return nil
}

type gameReorderRequest struct {
	NewIndex *int `json:"newIndex" validate:"required,min=0"`
}

type orderRequest struct {
	GameOrders []models.OrderUpdate `json:"gameOrders" validate:"required,min=1,dive"`
}

type playResponse struct {
	PlayCount int64  `json:"playCount"`
	Message   string `json:"message"`
}

func localizeGames(games []models.Game, loc models.Locale) []models.GameView {
	out := make([]models.GameView, len(games))
	for i := range games {
		out[i] = games[i].Localize(loc)
	}
	return out
}

// List returns the localized games in default order. ?categoryId narrows
// the list to one category.
func (h *Games) List(w http.ResponseWriter, r *http.Request) {
	var f models.GameFilter
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, r, badRequest("invalid categoryId"))
			return
		}
		f.CategoryID = &id
	}

	games, err := h.games.List(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, localizeGames(games, localeOf(r)))
}

// Showcased returns the newest showcased games.
func (h *Games) Showcased(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.Showcased(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, localizeGames(games, localeOf(r)))
}

// MostPlayed returns games by descending play count. ?limit defaults to 10.
func (h *Games) MostPlayed(w http.ResponseWriter, r *http.Request) {
	limit := service.MostPlayedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, r, badRequest("invalid limit"))
			return
		}
		limit = n
	}

	games, err := h.games.MostPlayed(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, localizeGames(games, localeOf(r)))
}

// Search matches ?q against the titles of the requested locale.
func (h *Games) Search(w http.ResponseWriter, r *http.Request) {
	loc := localeOf(r)
	games, err := h.games.Search(r.Context(), r.URL.Query().Get("q"), loc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, localizeGames(games, loc))
}

// BySlug returns the full game whose slug in either locale matches.
func (h *Games) BySlug(w http.ResponseWriter, r *http.Request) {
	g, err := h.games.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, g)
}

// Get returns the full game.
func (h *Games) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	g, err := h.games.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, g)
}

// ByCategory returns the games of a category in their per-category order.
func (h *Games) ByCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	games, err := h.games.ByCategory(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, localizeGames(games, localeOf(r)))
}

// Create adds a game. The image is required.
func (h *Games) Create(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	image, err := bindUpload(w, r, &req, "image")
	if err != nil {
		respondError(w, r, err)
		return
	}

	g, err := h.games.Create(r.Context(), service.GameInput{
		Title:       req.Title.localized(),
		Description: req.Description.localized(),
		Keywords:    req.Keywords.list(),
		CategoryIDs: req.CategoryIDs,
		InstantLink: req.InstantLink,
		Orientation: req.Orientation,
		IsNew:       req.IsNew,
		IsPopular:   req.IsPopular,
		IsActive:    req.IsActive,
		IsShowcased: req.IsShowcased,
	}, image)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, g)
}

// Update applies a partial update and an optional new image.
func (h *Games) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req gamePatchRequest
	image, err := bindUpload(w, r, &req, "image")
	if err != nil {
		respondError(w, r, err)
		return
	}

	g, err := h.games.Update(r.Context(), id, service.GamePatch{
		Title:       req.Title.localized(),
		Description: req.Description.localized(),
		Keywords:    req.Keywords.list(),
		CategoryIDs: req.CategoryIDs,
		InstantLink: req.InstantLink,
		Orientation: req.Orientation,
		IsNew:       req.IsNew,
		IsPopular:   req.IsPopular,
		IsActive:    req.IsActive,
		IsShowcased: req.IsShowcased,
	}, image)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, g)
}

// Delete removes a game and its image.
func (h *Games) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.games.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, r, "game deleted")
}

// Reorder moves a game within the default listing.
func (h *Games) Reorder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req gameReorderRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	games, err := h.games.Reorder(r.Context(), id, *req.NewIndex)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, games)
}

// UpdateOrder applies a batch of global positions.
func (h *Games) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.games.UpdateOrder(r.Context(), req.GameOrders)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, res)
}

// UpdateCategoryOrder applies a batch of positions within one category.
func (h *Games) UpdateCategoryOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req orderRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.games.UpdateCategoryOrder(r.Context(), id, req.GameOrders)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, res)
}

// Play records one play for the signed-in user.
func (h *Games) Play(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var userID *uuid.UUID
	if ident := middleware.IdentityFromCtx(r.Context()); ident != nil {
		userID = &ident.UserID
	}

	count, err := h.games.RecordPlay(r.Context(), id, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, playResponse{PlayCount: count, Message: "play recorded"})
}
