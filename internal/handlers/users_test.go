package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jellyarcade/internal/models"
)

func TestUserProfile(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.account(t, "Ada", models.RoleUser)
	racing := e.category(t, "Yarış", "Racing", nil)
	g := e.game(t, "Araba Yarışı", "Car Race", racing.ID)

	requireStatus(t, e.do(t, http.MethodGet, "/users/profile", nil, ""), http.StatusUnauthorized)

	requireStatus(t, e.do(t, http.MethodPost, "/users/favorites/"+g.ID.String(), nil, tok), http.StatusOK)
	requireStatus(t, e.do(t, http.MethodPost, "/games/"+g.ID.String()+"/play", nil, tok), http.StatusOK)

	rec := e.do(t, http.MethodGet, "/users/profile?lang=en", nil, tok)
	requireStatus(t, rec, http.StatusOK)
	p := decode[models.Profile](t, rec)
	assert.Equal(t, "Ada", p.Name)
	require.Len(t, p.Favorites, 1)
	assert.Equal(t, "Car Race", p.Favorites[0].Title)
	require.Len(t, p.RecentlyPlayed, 1)
	assert.Equal(t, "car-race-play", p.RecentlyPlayed[0].Game.Slug)

	body := rec.Body.String()
	assert.False(t, strings.Contains(body, "password"), "profile leaked a password field: %s", body)
}

func TestUserUpdateProfile(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.account(t, "Ada", models.RoleUser)

	rec := e.do(t, http.MethodPut, "/users/profile", map[string]string{"name": "Ada Lovelace"}, tok)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "Ada Lovelace", decode[models.User](t, rec).Name)

	rec = e.do(t, http.MethodPut, "/users/profile", map[string]string{"name": ""}, tok)
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "required", decode[errorResponse](t, rec).Fields["name"])
}

func TestUserPasswords(t *testing.T) {
	e := newTestEnv(t)
	ada, adaTok := e.account(t, "Ada", models.RoleUser)
	bob, bobTok := e.account(t, "Bob", models.RoleUser)
	_, adminTok := e.account(t, "Admin", models.RoleAdmin)

	t.Run("wrong current password", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/users/password", map[string]string{
			"oldPassword": "nope",
			"newPassword": "another123",
		}, adaTok)
		requireStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("change own password", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/users/password", map[string]string{
			"oldPassword": "secret123",
			"newPassword": "another123",
		}, adaTok)
		requireStatus(t, rec, http.StatusOK)

		rec = e.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    ada.Email,
			"password": "another123",
		}, "")
		requireStatus(t, rec, http.StatusOK)
	})

	t.Run("new password too short", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/users/password", map[string]string{
			"oldPassword": "another123",
			"newPassword": "abc",
		}, adaTok)
		requireStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("set someone else's password", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/users/"+bob.ID.String()+"/password", map[string]string{
			"password": "hijacked1",
		}, adaTok)
		requireStatus(t, rec, http.StatusForbidden)
	})

	t.Run("set own password", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/users/"+bob.ID.String()+"/password", map[string]string{
			"password": "bobsnew1",
		}, bobTok)
		requireStatus(t, rec, http.StatusOK)
	})

	t.Run("admin sets any password", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/users/"+bob.ID.String()+"/password", map[string]string{
			"password": "adminset1",
		}, adminTok)
		requireStatus(t, rec, http.StatusOK)

		rec = e.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    bob.Email,
			"password": "adminset1",
		}, "")
		requireStatus(t, rec, http.StatusOK)
	})

	t.Run("unknown target", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/users/"+uuid.NewString()+"/password", map[string]string{
			"password": "whatever1",
		}, adminTok)
		requireStatus(t, rec, http.StatusNotFound)
	})
}

func TestUserList_AdminOnly(t *testing.T) {
	e := newTestEnv(t)
	_, userTok := e.account(t, "Ada", models.RoleUser)
	_, adminTok := e.account(t, "Admin", models.RoleAdmin)

	requireStatus(t, e.do(t, http.MethodGet, "/users", nil, userTok), http.StatusForbidden)

	rec := e.do(t, http.MethodGet, "/users", nil, adminTok)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[[]models.User](t, rec), 2)
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestUserAvatar(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.account(t, "Ada", models.RoleUser)

	rec := e.upload(t, http.MethodPut, "/users/avatar", nil, "avatar", pngBytes(t), tok)
	requireStatus(t, rec, http.StatusOK)
	first := decode[models.User](t, rec).Avatar
	assert.Contains(t, first, "/avatars/")

	rec = e.upload(t, http.MethodPut, "/users/avatar", nil, "avatar", pngBytes(t), tok)
	requireStatus(t, rec, http.StatusOK)
	assert.NotEqual(t, first, decode[models.User](t, rec).Avatar)
	assert.Contains(t, e.media.destroyed, first)

	t.Run("missing file", func(t *testing.T) {
		rec := e.upload(t, http.MethodPut, "/users/avatar", nil, "avatar", nil, tok)
		requireStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("not multipart", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/users/avatar", map[string]string{}, tok)
		requireStatus(t, rec, http.StatusBadRequest)
	})
}

func TestUserFavorites(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.account(t, "Ada", models.RoleUser)
	racing := e.category(t, "Yarış", "Racing", nil)
	g := e.game(t, "Araba Yarışı", "Car Race", racing.ID)
	path := "/users/favorites/" + g.ID.String()

	requireStatus(t, e.do(t, http.MethodPost, path, nil, tok), http.StatusOK)
	rec := e.do(t, http.MethodPost, path, nil, tok)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[[]models.GameView](t, rec), 1, "adding twice must keep one entry")

	rec = e.do(t, http.MethodGet, "/users/favorites?lang=en", nil, tok)
	requireStatus(t, rec, http.StatusOK)
	views := decode[[]models.GameView](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, "Car Race", views[0].Title)

	requireStatus(t, e.do(t, http.MethodPost, "/users/favorites/"+uuid.NewString(), nil, tok), http.StatusNotFound)

	rec = e.do(t, http.MethodDelete, path, nil, tok)
	requireStatus(t, rec, http.StatusOK)
	assert.Empty(t, decode[[]models.GameView](t, rec))
	requireStatus(t, e.do(t, http.MethodDelete, path, nil, tok), http.StatusOK)
}

func TestUserFavoriteCategories(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.account(t, "Ada", models.RoleUser)
	racing := e.category(t, "Yarış", "Racing", nil)
	path := "/users/favorite-categories/" + racing.ID.String()

	requireStatus(t, e.do(t, http.MethodPost, path, nil, tok), http.StatusOK)
	rec := e.do(t, http.MethodPost, path, nil, tok)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[[]models.CategoryView](t, rec), 1)

	rec = e.do(t, http.MethodGet, "/users/favorite-categories?lang=en", nil, tok)
	requireStatus(t, rec, http.StatusOK)
	views := decode[[]models.CategoryView](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, "Racing", views[0].Name)

	requireStatus(t, e.do(t, http.MethodPost, "/users/favorite-categories/"+uuid.NewString(), nil, tok), http.StatusNotFound)
	requireStatus(t, e.do(t, http.MethodPost, "/users/favorite-categories/bad", nil, tok), http.StatusBadRequest)

	rec = e.do(t, http.MethodDelete, path, nil, tok)
	requireStatus(t, rec, http.StatusOK)
	assert.Empty(t, decode[[]models.CategoryView](t, rec))
}

func TestUserRecentGames(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.account(t, "Ada", models.RoleUser)
	racing := e.category(t, "Yarış", "Racing", nil)

	var ids []uuid.UUID
	for _, title := range []string{"One", "Two", "Three", "Four", "Five", "Six"} {
		g := e.game(t, title+" TR", title, racing.ID)
		ids = append(ids, g.ID)
		requireStatus(t, e.do(t, http.MethodPost, "/games/"+g.ID.String()+"/play", nil, tok), http.StatusOK)
	}

	rec := e.do(t, http.MethodGet, "/users/recent-games?lang=en", nil, tok)
	requireStatus(t, rec, http.StatusOK)
	recent := decode[[]models.RecentPlayView](t, rec)
	require.Len(t, recent, models.RecentlyPlayedLimit)
	assert.Equal(t, ids[5], recent[0].Game.ID)
	assert.Equal(t, "Six", recent[0].Game.Title)
	assert.Equal(t, ids[1], recent[4].Game.ID)
}
