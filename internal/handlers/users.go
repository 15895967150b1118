// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"jellyarcade/internal/middleware"
	"jellyarcade/internal/models"
	"jellyarcade/internal/service"
)

// Users serves the account, favorites and history endpoints. Every handler
// acts on the signed-in user unless it says otherwise.
type Users struct {
	users *service.UserService
}

// NewUsers creates the user handlers.
func NewUsers(users *service.UserService) *Users {
	return &Users{users: users}
}

type profileRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

type setPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// identity returns the caller, answering 401 when there is none.
func identity(w http.ResponseWriter, r *http.Request) (*middleware.Identity, bool) {
	ident := middleware.IdentityFromCtx(r.Context())
	if ident == nil {
		respond(w, r, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return nil, false
	}
	return ident, true
}

// List returns every account. Admin only.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, users)
}

// Profile returns the caller's profile with favorites and recent plays.
func (h *Users) Profile(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	p, err := h.users.Profile(r.Context(), ident.UserID, localeOf(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, p)
}

// UpdateProfile renames the caller.
func (h *Users) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := h.users.UpdateProfile(r.Context(), ident.UserID, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, u)
}

// ChangePassword replaces the caller's password after checking the old one.
func (h *Users) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), ident.UserID, req.OldPassword, req.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, r, "password updated")
}

// SetPassword replaces the password of the user in the path. Admins may
// act on anyone, other users only on themselves.
func (h *Users) SetPassword(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	target, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req setPasswordRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.users.SetPassword(r.Context(), ident.UserID, ident.Role, target, req.Password); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, r, "password updated")
}

// Avatar replaces the caller's avatar with the uploaded "avatar" file.
func (h *Users) Avatar(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	if err := parseMultipart(w, r); err != nil {
		respondError(w, r, err)
		return
	}
	image, err := readImage(r, "avatar")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if image == nil {
		respondError(w, r, badRequest("avatar image is required"))
		return
	}

	u, err := h.users.UpdateAvatar(r.Context(), ident.UserID, image)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, u)
}

// Favorites returns the caller's favorite games.
func (h *Users) Favorites(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	games, err := h.users.Favorites(r.Context(), ident.UserID)
	h.respondGames(w, r, games, err)
}

// AddFavorite adds the game in the path to the caller's favorites.
func (h *Users) AddFavorite(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	gameID, err := pathID(r, "gameId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	games, err := h.users.AddFavorite(r.Context(), ident.UserID, gameID)
	h.respondGames(w, r, games, err)
}

// RemoveFavorite removes the game in the path from the caller's favorites.
func (h *Users) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	gameID, err := pathID(r, "gameId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	games, err := h.users.RemoveFavorite(r.Context(), ident.UserID, gameID)
	h.respondGames(w, r, games, err)
}

func (h *Users) respondGames(w http.ResponseWriter, r *http.Request, games []models.Game, err error) {
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, localizeGames(games, localeOf(r)))
}

// FavoriteCategories returns the caller's favorite categories.
func (h *Users) FavoriteCategories(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	list, err := h.users.FavoriteCategories(r.Context(), ident.UserID)
	h.respondCategories(w, r, list, err)
}

// AddFavoriteCategory subscribes the caller to new games in a category.
func (h *Users) AddFavoriteCategory(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	categoryID, err := pathID(r, "categoryId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	list, err := h.users.AddFavoriteCategory(r.Context(), ident.UserID, categoryID)
	h.respondCategories(w, r, list, err)
}

// RemoveFavoriteCategory unsubscribes the caller from a category.
func (h *Users) RemoveFavoriteCategory(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	categoryID, err := pathID(r, "categoryId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	list, err := h.users.RemoveFavoriteCategory(r.Context(), ident.UserID, categoryID)
	h.respondCategories(w, r, list, err)
}

func (h *Users) respondCategories(w http.ResponseWriter, r *http.Request, list []models.Category, err error) {
	if err != nil {
		respondError(w, r, err)
		return
	}
	loc := localeOf(r)
	out := make([]models.CategoryView, len(list))
	for i := range list {
		out[i] = list[i].Localize(loc)
	}
	respond(w, r, http.StatusOK, out)
}

// RecentGames returns the caller's last played games, newest first.
func (h *Users) RecentGames(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	plays, err := h.users.RecentGames(r.Context(), ident.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, service.RecentViews(plays, localeOf(r)))
}
