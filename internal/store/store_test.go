// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"jellyarcade/internal/database"
	"jellyarcade/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "jellyarcade")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "jellyarcade")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// uniq returns a short random suffix so parallel runs do not share slugs.
func uniq() string {
	return strings.ReplaceAll(uuid.NewString()[:8], "-", "")
}

// createCategory inserts a category and registers its cleanup.
func createCategory(t *testing.T, db *sql.DB, parent *uuid.UUID, order int) *models.Category {
	t.Helper()
	s := NewCategoryStore(db)
	suffix := uniq()
	c := &models.Category{
		Name:     models.Localized{TR: "Kategori " + suffix, EN: "Category " + suffix},
		Slug:     models.Localized{TR: "kategori-" + suffix, EN: "category-" + suffix},
		Order:    order,
		ParentID: parent,
		IsActive: true,
	}
	if err := s.Create(context.Background(), c); err != nil {
		t.Fatalf("create category: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM categories WHERE id = $1", c.ID) })
	return c
}

// createGame inserts a game in the given categories and registers its cleanup.
func createGame(t *testing.T, db *sql.DB, categoryIDs ...uuid.UUID) *models.Game {
	t.Helper()
	s := NewGameStore(db)
	suffix := uniq()
	g := &models.Game{
		Title:       models.Localized{TR: "Oyun " + suffix, EN: "Game " + suffix},
		Slug:        models.Localized{TR: "oyun-" + suffix, EN: "game-" + suffix + "-play"},
		Keywords:    models.LocalizedList{TR: []string{"yarış"}, EN: []string{"racing"}},
		CategoryIDs: categoryIDs,
		InstantLink: "https://play.example.com/" + suffix,
		Image:       "https://cdn.example.com/games/" + suffix + ".jpg",
		Orientation: models.OrientationHorizontal,
		IsActive:    true,
	}
	if err := s.Create(context.Background(), g); err != nil {
		t.Fatalf("create game: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM games WHERE id = $1", g.ID) })
	return g
}

// createUser inserts a password-less user and registers its cleanup.
func createUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	s := NewUserStore(db)
	u := &models.User{
		Name:   "Store Test",
		Email:  "store-" + uniq() + "@store-test.local",
		Role:   models.RoleUser,
		Avatar: models.DefaultAvatar,
	}
	if err := s.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"car":     "car",
		"100%":    `100\%`,
		"a_b":     `a\_b`,
		`back\sl`: `back\\sl`,
	}
	for in, want := range tests {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQualify(t *testing.T) {
	got := qualify("g", "id, title,\n\tslug_tr")
	if got != "g.id, g.title, g.slug_tr" {
		t.Errorf("qualify = %q", got)
	}
}
