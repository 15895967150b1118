package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jellyarcade/internal/imaging"
	"jellyarcade/internal/models"
	"jellyarcade/internal/service"
	"jellyarcade/internal/store/memory"
)

const cdn = "https://cdn.test/"

// fakeMedia records uploads and destroys instead of talking to S3.
type fakeMedia struct {
	mu          sync.Mutex
	n           int
	uploaded    []string
	destroyed   []string
	failUpload  error
	failDestroy error
}

func (m *fakeMedia) Upload(_ context.Context, data []byte, spec imaging.Spec) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpload != nil {
		return "", m.failUpload
	}
	m.n++
	url := fmt.Sprintf("%s%s/%d.jpg", cdn, spec.Folder, m.n)
	m.uploaded = append(m.uploaded, url)
	return url, nil
}

func (m *fakeMedia) Destroy(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDestroy != nil {
		return m.failDestroy
	}
	m.destroyed = append(m.destroyed, url)
	return nil
}

func (m *fakeMedia) Owns(url string) bool { return strings.HasPrefix(url, cdn) }

type fakeTokens struct{}

func (fakeTokens) Generate(id uuid.UUID, role models.Role) (string, error) {
	return "token:" + id.String() + ":" + string(role), nil
}

// fakeCache counts invalidations and serves whatever was stored last.
type fakeCache struct {
	mu            sync.Mutex
	list          []models.Category
	ok            bool
	invalidations int
}

func (c *fakeCache) Categories(context.Context) ([]models.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list, c.ok
}

func (c *fakeCache) StoreCategories(_ context.Context, list []models.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list, c.ok = list, true
}

func (c *fakeCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list, c.ok = nil, false
	c.invalidations++
}

type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) Inc() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

// env wires every service over one in-memory database.
type env struct {
	db            *memory.DB
	media         *fakeMedia
	cache         *fakeCache
	plays         *counter
	categories    *service.CategoryService
	games         *service.GameService
	users         *service.UserService
	identity      *service.IdentityService
	notifications *service.NotificationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := memory.New()
	media := &fakeMedia{}
	cache := &fakeCache{}
	locks := service.NewKeyedMutex()
	notifications := service.NewNotificationService(db.Notifications())

	e := &env{
		db:            db,
		media:         media,
		cache:         cache,
		plays:         &counter{},
		categories:    service.NewCategoryService(db.Categories(), media, locks, cache),
		games:         service.NewGameService(db.Games(), db.Categories(), db.Users(), media, locks, notifications),
		users:         service.NewUserService(db.Users(), db.Games(), db.Categories(), media),
		identity:      service.NewIdentityService(db.Users(), fakeTokens{}),
		notifications: notifications,
	}
	e.games.Plays = e.plays
	e.users.Cost = bcrypt.MinCost
	e.identity.Cost = bcrypt.MinCost
	return e
}

var image = []byte("not decoded by the fake media")

func (e *env) category(t *testing.T, tr, en string, parent *uuid.UUID) *models.Category {
	t.Helper()
	c, err := e.categories.Create(context.Background(), service.CategoryInput{
		Name:     models.Localized{TR: tr, EN: en},
		ParentID: parent,
	}, nil)
	require.NoError(t, err)
	return c
}

func (e *env) game(t *testing.T, tr, en string, categories ...uuid.UUID) *models.Game {
	t.Helper()
	g, err := e.games.Create(context.Background(), service.GameInput{
		Title:       models.Localized{TR: tr, EN: en},
		CategoryIDs: categories,
		InstantLink: "https://play.example.com/" + en,
	}, image)
	require.NoError(t, err)
	return g
}

func (e *env) user(t *testing.T, email string) *models.User {
	t.Helper()
	s, err := e.identity.Register(context.Background(), "Player", email, "secret123")
	require.NoError(t, err)
	u, err := e.users.Get(context.Background(), s.User.ID)
	require.NoError(t, err)
	return u
}

func orders(list []models.Category, parent *uuid.UUID) map[uuid.UUID]int {
	out := map[uuid.UUID]int{}
	for _, c := range list {
		if models.SameParent(c.ParentID, parent) {
			out[c.ID] = c.Order
		}
	}
	return out
}

// requireDense checks the sibling set under parent is numbered 0..n-1.
func requireDense(t *testing.T, list []models.Category, parent *uuid.UUID) {
	t.Helper()
	seen := map[int]bool{}
	set := orders(list, parent)
	for _, o := range set {
		require.False(t, seen[o], "duplicate order %d", o)
		require.True(t, o >= 0 && o < len(set), "order %d out of range 0..%d", o, len(set)-1)
		seen[o] = true
	}
}

var errBoom = errors.New("boom")
