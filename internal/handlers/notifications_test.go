package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jellyarcade/internal/models"
)

func TestNotificationBroadcast(t *testing.T) {
	e := newTestEnv(t)
	_, adminTok := e.account(t, "Admin", models.RoleAdmin)
	_, adaTok := e.account(t, "Ada", models.RoleUser)
	body := map[string]any{
		"title":   map[string]string{"tr": "Bakım", "en": "Maintenance"},
		"message": map[string]string{"tr": "Yarın", "en": "Tomorrow"},
	}

	requireStatus(t, e.do(t, http.MethodPost, "/notifications/system", body, adaTok), http.StatusForbidden)

	rec := e.do(t, http.MethodPost, "/notifications/system", body, adminTok)
	requireStatus(t, rec, http.StatusCreated)
	assert.Equal(t, int64(2), decode[createdResponse](t, rec).Created)

	rec = e.do(t, http.MethodPost, "/notifications/system", map[string]any{
		"title":   map[string]string{"tr": "Bakım", "en": "Maintenance"},
		"message": map[string]string{"tr": "Yarın"},
	}, adminTok)
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestNotificationInbox(t *testing.T) {
	e := newTestEnv(t)
	_, adaTok := e.account(t, "Ada", models.RoleUser)
	_, bobTok := e.account(t, "Bob", models.RoleUser)
	racing := e.category(t, "Yarış", "Racing", nil)
	g := e.game(t, "Araba Yarışı", "Car Race", racing.ID)

	requireStatus(t, e.do(t, http.MethodGet, "/notifications", nil, ""), http.StatusUnauthorized)

	rec := e.do(t, http.MethodGet, "/notifications?lang=en", nil, adaTok)
	requireStatus(t, rec, http.StatusOK)
	list := decode[[]models.NotificationView](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationNewGame, list[0].Type)
	require.NotNil(t, list[0].RelatedGame)
	assert.Equal(t, g.ID, list[0].RelatedGame.ID)
	assert.Equal(t, "Car Race", list[0].RelatedGame.Title)
	assert.False(t, list[0].IsRead)

	rec = e.do(t, http.MethodGet, "/notifications/unread-count", nil, adaTok)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, 1, decode[countResponse](t, rec).Count)

	t.Run("someone else's notification", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/notifications/"+list[0].ID.String()+"/read", nil, bobTok)
		requireStatus(t, rec, http.StatusNotFound)
	})

	t.Run("unknown notification", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/notifications/"+uuid.NewString()+"/read", nil, adaTok)
		requireStatus(t, rec, http.StatusNotFound)
	})

	requireStatus(t, e.do(t, http.MethodPut, "/notifications/"+list[0].ID.String()+"/read", nil, adaTok), http.StatusOK)
	rec = e.do(t, http.MethodGet, "/notifications/unread-count", nil, adaTok)
	assert.Equal(t, 0, decode[countResponse](t, rec).Count)

	rec = e.do(t, http.MethodPut, "/notifications/read-all", nil, bobTok)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, int64(1), decode[updatedResponse](t, rec).Updated)

	rec = e.do(t, http.MethodPut, "/notifications/read-all", nil, bobTok)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, int64(0), decode[updatedResponse](t, rec).Updated)
}
