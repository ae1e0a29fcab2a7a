// Package main is the entry point for the BlogPress API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogpress/internal/auth"
	"blogpress/internal/cache"
	"blogpress/internal/config"
	"blogpress/internal/database"
	"blogpress/internal/handlers"
	"blogpress/internal/media"
	"blogpress/internal/middleware"
	"blogpress/internal/posts"
	"blogpress/internal/router"
	"blogpress/internal/store"
	"blogpress/internal/store/memory"
)

// userStore is what both the lifecycle service and the account handlers
// need from the user repository.
type userStore interface {
	posts.UserRepository
	handlers.UserStore
}

func main() {
	// Structured logger: debug level in development, info otherwise.
	level := slog.LevelInfo
	if os.Getenv("APP_ENV") == "" || os.Getenv("APP_ENV") == "development" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"store", cfg.StoreBackend,
		"media", cfg.MediaBackend,
	)

	// Post and user repositories.
	var (
		postRepo posts.PostRepository
		userRepo userStore
	)
	switch cfg.StoreBackend {
	case "memory":
		postRepo = memory.NewPostStore()
		mem := memory.NewUserStore()
		userRepo = mem
		if cfg.IsDev() {
			seedMemory(mem)
		}
		slog.Warn("using in-memory store, data is lost on restart")
	default:
		db := openDatabase(cfg)
		defer db.Close()
		postRepo = store.NewPostStore(db)
		userRepo = store.NewUserStore(db)
	}

	// Thumbnail storage.
	mediaStore := openMediaStore(cfg)

	// Valkey listing cache (optional, the API works without it).
	var listing *cache.ListingCache
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Warn("valkey not available, read responses will not be cached", "error", err)
	} else {
		defer valkeyClient.Close()
		listing = cache.NewListingCache(valkeyClient, cache.DefaultListingTTL)
	}

	svc := posts.NewService(postRepo, userRepo, mediaStore, posts.Options{
		EditOwnerOnly: cfg.EditOwnerOnly,
	})
	tokens := auth.NewIssuer(cfg.JWTSecret, auth.DefaultTTL)

	// Rate limiters: brute-force protection on login/register, and a looser
	// cap on post writes.
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()
	writeLimiter := middleware.NewRateLimiter(60, time.Minute)
	defer writeLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(router.Deps{
		Tokens:       tokens,
		Posts:        handlers.NewPosts(svc, listing),
		Users:        handlers.NewUsers(userRepo, tokens),
		Admin:        handlers.NewAdmin(svc, cfg.AdminIDs),
		Uploads:      handlers.NewUploads(mediaStore),
		CORSOrigins:  cfg.CORSAllowedOrigins,
		AuthLimiter:  authLimiter,
		WriteLimiter: writeLimiter,
	})

	// Background counter repair.
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if cfg.ReconcileInterval > 0 {
		slog.Info("counter reconciler enabled", "interval", cfg.ReconcileInterval)
		go svc.RunReconciler(bgCtx, cfg.ReconcileInterval)
	}

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
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
	stopBackground()

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// openDatabase connects to PostgreSQL, runs pending migrations and seeds
// development data. It exits the process on failure.
func openDatabase(cfg *config.Config) *sql.DB {
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}
	return db
}

// openMediaStore builds the configured thumbnail store. It exits the
// process on failure.
func openMediaStore(cfg *config.Config) media.Store {
	if cfg.MediaBackend == "s3" {
		s3, err := media.NewS3(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 media store", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 media store ready", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		return s3
	}

	disk, err := media.NewDisk(cfg.UploadsDir, "/uploads")
	if err != nil {
		slog.Error("failed to initialize uploads directory", "error", err, "dir", cfg.UploadsDir)
		os.Exit(1)
	}
	slog.Info("disk media store ready", "dir", disk.Root())
	return disk
}

// seedMemory creates the development author in an empty in-memory store.
func seedMemory(users *memory.UserStore) {
	ctx := context.Background()
	existing, _ := users.List(ctx)
	if len(existing) > 0 {
		return
	}
	if _, err := users.Create(ctx, "Default Author", "author@blogpress.local", "author"); err != nil {
		slog.Warn("failed to seed in-memory store", "error", err)
		return
	}
	slog.Info("in-memory store seeded with default author", "email", "author@blogpress.local", "password", "author")
}
