// Package router sets up all HTTP routes and middleware chains for the
// jellyarcade API. Reads are public, writes need a bearer token and catalog
// mutations need the admin role.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"jellyarcade/internal/handlers"
	"jellyarcade/internal/metrics"
	"jellyarcade/internal/middleware"
)

// pingTimeout bounds the database check of the health endpoint.
const pingTimeout = 2 * time.Second

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds everything the router mounts.
type Deps struct {
	Tokens        middleware.TokenParser
	Metrics       *metrics.Metrics
	APILimiter    *middleware.RateLimiter
	AuthLimiter   *middleware.RateLimiter
	DB            Pinger
	Auth          *handlers.Auth
	Categories    *handlers.Categories
	Games         *handlers.Games
	Users         *handlers.Users
	Notifications *handlers.Notifications
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.Authenticate(d.Tokens))

	r.Get("/health", healthHandler(d.DB))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	// Every API route shares the per-IP budget. Health and metrics stay
	// reachable for probes and scrapers.
	r.Group(func(r chi.Router) {
		if d.APILimiter != nil {
			r.Use(d.APILimiter.Middleware)
		}

		r.Route("/auth", func(r chi.Router) {
			if d.AuthLimiter != nil {
				r.Use(d.AuthLimiter.Middleware)
			}
			r.Post("/register", d.Auth.Register)
			r.Post("/login", d.Auth.Login)
			r.Get("/{provider}", d.Auth.Begin)
			r.Get("/{provider}/callback", d.Auth.Callback)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", d.Categories.List)
			r.Get("/new-games", d.Categories.NewGames)
			r.Get("/most-played", d.Categories.MostPlayed)
			r.Get("/{id}", d.Categories.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/", d.Categories.Create)
				r.Put("/{id}", d.Categories.Update)
				r.Delete("/{id}", d.Categories.Delete)
				r.Put("/{id}/reorder", d.Categories.Reorder)
				r.Put("/{id}/move", d.Categories.Move)
			})
		})

		r.Route("/games", func(r chi.Router) {
			r.Get("/", d.Games.List)
			r.Get("/showcased", d.Games.Showcased)
			r.Get("/most-played", d.Games.MostPlayed)
			r.Get("/search", d.Games.Search)
			r.Get("/by-slug/{slug}", d.Games.BySlug)
			r.Get("/category/{id}", d.Games.ByCategory)
			r.Get("/{id}", d.Games.Get)
			r.With(middleware.RequireAuth).Post("/{id}/play", d.Games.Play)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/", d.Games.Create)
				r.Put("/order", d.Games.UpdateOrder)
				r.Put("/category/{id}/order", d.Games.UpdateCategoryOrder)
				r.Put("/{id}", d.Games.Update)
				r.Delete("/{id}", d.Games.Delete)
				r.Put("/{id}/reorder", d.Games.Reorder)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.With(middleware.RequireAdmin).Get("/", d.Users.List)
			r.Get("/profile", d.Users.Profile)
			r.Put("/profile", d.Users.UpdateProfile)
			r.Put("/password", d.Users.ChangePassword)
			r.Put("/avatar", d.Users.Avatar)
			r.Put("/{id}/password", d.Users.SetPassword)

			r.Get("/favorites", d.Users.Favorites)
			r.Post("/favorites/{gameId}", d.Users.AddFavorite)
			r.Delete("/favorites/{gameId}", d.Users.RemoveFavorite)

			r.Get("/favorite-categories", d.Users.FavoriteCategories)
			r.Post("/favorite-categories/{categoryId}", d.Users.AddFavoriteCategory)
			r.Delete("/favorite-categories/{categoryId}", d.Users.RemoveFavoriteCategory)

			r.Get("/recent-games", d.Users.RecentGames)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", d.Notifications.List)
			r.Get("/unread-count", d.Notifications.UnreadCount)
			r.Put("/read-all", d.Notifications.MarkAllRead)
			r.Put("/{id}/read", d.Notifications.MarkRead)
			r.With(middleware.RequireAdmin).Post("/system", d.Notifications.Broadcast)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, map[string]string{"error": "method not allowed"})
	})

	return r
}

// healthHandler reports ok when the database answers a ping.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				slog.Error("health check failed", "error", err)
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, map[string]string{"status": "unavailable"})
				return
			}
		}
		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}
