package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jellyarcade/internal/imaging"
	"jellyarcade/internal/middleware"
	"jellyarcade/internal/models"
	"jellyarcade/internal/oauth"
	"jellyarcade/internal/service"
	"jellyarcade/internal/session"
	"jellyarcade/internal/store/memory"
	"jellyarcade/internal/token"
)

const cdn = "https://cdn.test/"

// stubMedia hands out predictable URLs instead of talking to S3.
type stubMedia struct {
	mu        sync.Mutex
	n         int
	destroyed []string
	fail      error
}

func (m *stubMedia) Upload(_ context.Context, _ []byte, spec imaging.Spec) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return "", m.fail
	}
	m.n++
	return fmt.Sprintf("%s%s/%d.jpg", cdn, spec.Folder, m.n), nil
}

func (m *stubMedia) Destroy(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyed = append(m.destroyed, url)
	return nil
}

func (m *stubMedia) Owns(url string) bool { return strings.HasPrefix(url, cdn) }

// testEnv wires every handler over one in-memory database.
type testEnv struct {
	db     *memory.DB
	media  *stubMedia
	tokens *token.Maker

	categories    *service.CategoryService
	games         *service.GameService
	users         *service.UserService
	identity      *service.IdentityService
	notifications *service.NotificationService

	providers  oauth.Registry
	states     *session.Store
	successURL string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := memory.New()
	media := &stubMedia{}
	tokens := token.NewMaker("handler-test-secret", time.Hour)
	locks := service.NewKeyedMutex()
	notifications := service.NewNotificationService(db.Notifications())

	e := &testEnv{
		db:            db,
		media:         media,
		tokens:        tokens,
		categories:    service.NewCategoryService(db.Categories(), media, locks, nil),
		games:         service.NewGameService(db.Games(), db.Categories(), db.Users(), media, locks, notifications),
		users:         service.NewUserService(db.Users(), db.Games(), db.Categories(), media),
		identity:      service.NewIdentityService(db.Users(), tokens),
		notifications: notifications,
		providers:     oauth.Registry{},
	}
	e.users.Cost = bcrypt.MinCost
	e.identity.Cost = bcrypt.MinCost
	return e
}

// routes mounts the handlers the way the router does.
func (e *testEnv) routes() http.Handler {
	categories := NewCategories(e.categories)
	games := NewGames(e.games)
	users := NewUsers(e.users)
	notes := NewNotifications(e.notifications)
	auth := NewAuth(e.identity, e.providers, e.states, e.successURL)

	r := chi.NewRouter()
	r.Use(middleware.Authenticate(e.tokens))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", auth.Register)
		r.Post("/login", auth.Login)
		r.Get("/{provider}", auth.Begin)
		r.Get("/{provider}/callback", auth.Callback)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", categories.List)
		r.Get("/new-games", categories.NewGames)
		r.Get("/most-played", categories.MostPlayed)
		r.Get("/{id}", categories.Get)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/", categories.Create)
			r.Put("/{id}", categories.Update)
			r.Delete("/{id}", categories.Delete)
			r.Put("/{id}/reorder", categories.Reorder)
			r.Put("/{id}/move", categories.Move)
		})
	})

	r.Route("/games", func(r chi.Router) {
		r.Get("/", games.List)
		r.Get("/showcased", games.Showcased)
		r.Get("/most-played", games.MostPlayed)
		r.Get("/search", games.Search)
		r.Get("/by-slug/{slug}", games.BySlug)
		r.Get("/category/{id}", games.ByCategory)
		r.Get("/{id}", games.Get)
		r.With(middleware.RequireAuth).Post("/{id}/play", games.Play)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/", games.Create)
			r.Put("/order", games.UpdateOrder)
			r.Put("/category/{id}/order", games.UpdateCategoryOrder)
			r.Put("/{id}", games.Update)
			r.Delete("/{id}", games.Delete)
			r.Put("/{id}/reorder", games.Reorder)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.With(middleware.RequireAdmin).Get("/", users.List)
		r.Get("/profile", users.Profile)
		r.Put("/profile", users.UpdateProfile)
		r.Put("/password", users.ChangePassword)
		r.Put("/avatar", users.Avatar)
		r.Put("/{id}/password", users.SetPassword)
		r.Get("/favorites", users.Favorites)
		r.Post("/favorites/{gameId}", users.AddFavorite)
		r.Delete("/favorites/{gameId}", users.RemoveFavorite)
		r.Get("/favorite-categories", users.FavoriteCategories)
		r.Post("/favorite-categories/{categoryId}", users.AddFavoriteCategory)
		r.Delete("/favorite-categories/{categoryId}", users.RemoveFavoriteCategory)
		r.Get("/recent-games", users.RecentGames)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", notes.List)
		r.Get("/unread-count", notes.UnreadCount)
		r.Put("/read-all", notes.MarkAllRead)
		r.Put("/{id}/read", notes.MarkRead)
		r.With(middleware.RequireAdmin).Post("/system", notes.Broadcast)
	})
	return r
}

// account inserts a user and returns it with a bearer token.
func (e *testEnv) account(t *testing.T, name string, role models.Role) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		Avatar:       models.DefaultAvatar,
	}
	require.NoError(t, e.db.Users().Create(context.Background(), u))
	raw, err := e.tokens.Generate(u.ID, role)
	require.NoError(t, err)
	return u, raw
}

func (e *testEnv) category(t *testing.T, tr, en string, parent *uuid.UUID) *models.Category {
	t.Helper()
	c, err := e.categories.Create(context.Background(), service.CategoryInput{
		Name:     models.Localized{TR: tr, EN: en},
		ParentID: parent,
	}, nil)
	require.NoError(t, err)
	return c
}

func (e *testEnv) game(t *testing.T, tr, en string, categories ...uuid.UUID) *models.Game {
	t.Helper()
	g, err := e.games.Create(context.Background(), service.GameInput{
		Title:       models.Localized{TR: tr, EN: en},
		CategoryIDs: categories,
		InstantLink: "https://play.example.com/" + strings.ToLower(strings.ReplaceAll(en, " ", "-")),
	}, pngBytes(t))
	require.NoError(t, err)
	return g
}

// do sends a JSON request. body may be nil, a string or any value to
// marshal. tok is a raw token or empty for an anonymous call.
func (e *testEnv) do(t *testing.T, method, path string, body any, tok string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(req, tok)
}

// upload sends a multipart request with the given fields and, when data is
// non-nil, a file under fileField.
func (e *testEnv) upload(t *testing.T, method, path string, fields map[string]string, fileField string, data []byte, tok string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if data != nil {
		fw, err := mw.CreateFormFile(fileField, "upload.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.serve(req, tok)
}

func (e *testEnv) serve(req *http.Request, tok string) *httptest.ResponseRecorder {
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.routes().ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the response body into T.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

// pngBytes returns a small valid PNG.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
