// Package main is the entry point for the jellyarcade API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jellyarcade/internal/cache"
	"jellyarcade/internal/config"
	"jellyarcade/internal/database"
	"jellyarcade/internal/handlers"
	"jellyarcade/internal/metrics"
	"jellyarcade/internal/middleware"
	"jellyarcade/internal/oauth"
	"jellyarcade/internal/router"
	"jellyarcade/internal/service"
	"jellyarcade/internal/session"
	"jellyarcade/internal/storage"
	"jellyarcade/internal/store"
	"jellyarcade/internal/token"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	var logHandler slog.Handler
	if cfg.IsDev() {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(logHandler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the first admin account (no-op if users already exist).
	if cfg.IsDev() {
		if err := database.Seed(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (category cache, write locks and OAuth state).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Connect to S3-compatible object storage. Without it image uploads fail.
	var media service.Media = storage.Unconfigured{}
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" {
		client, err := storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		media = client
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"bucket", cfg.S3Bucket,
		)
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	secureCookies := !cfg.IsDev()
	tokens := token.NewMaker(cfg.JWTSecret, cfg.JWTTTL)
	states := session.NewStore(valkeyClient, secureCookies)
	locks := cache.NewLocker(valkeyClient, cache.DefaultLockTTL)
	catalogCache := cache.NewCatalogCache(valkeyClient, cfg.CategoryCacheTTL)
	m := metrics.New()

	startup, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	providers := oauth.NewRegistry(startup, cfg)
	cancelStartup()

	// Initialize data stores.
	categoryStore := store.NewCategoryStore(db)
	gameStore := store.NewGameStore(db)
	userStore := store.NewUserStore(db)
	notificationStore := store.NewNotificationStore(db)

	// Services hold the catalog rules on top of the stores.
	notifications := service.NewNotificationService(notificationStore)
	categories := service.NewCategoryService(categoryStore, media, locks, catalogCache)
	games := service.NewGameService(gameStore, categoryStore, userStore, media, locks, notifications)
	games.Plays = m.Plays
	users := service.NewUserService(userStore, gameStore, categoryStore, media)
	identity := service.NewIdentityService(userStore, tokens)

	apiLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer apiLimiter.Stop()
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitPerMinute, time.Minute)
	defer authLimiter.Stop()

	r := router.New(router.Deps{
		Tokens:        tokens,
		Metrics:       m,
		APILimiter:    apiLimiter,
		AuthLimiter:   authLimiter,
		DB:            db,
		Auth:          handlers.NewAuth(identity, providers, states, cfg.OAuthSuccessURL),
		Categories:    handlers.NewCategories(categories),
		Games:         handlers.NewGames(games),
		Users:         handlers.NewUsers(users),
		Notifications: handlers.NewNotifications(notifications),
	})

	// WriteTimeout covers multipart uploads that are forwarded to S3.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
