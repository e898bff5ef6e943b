// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"studio-api/internal/auth"
	"studio-api/internal/config"
	"studio-api/internal/geoip"
	"studio-api/internal/handler/api"
	"studio-api/internal/imaging"
	"studio-api/internal/logging"
	"studio-api/internal/mailer"
	"studio-api/internal/middleware"
	"studio-api/internal/model"
	"studio-api/internal/scheduler"
	"studio-api/internal/store"
	"studio-api/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "studio-api - photography studio backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_AUTH_SECRET     Token signing secret (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_DB_PATH         SQLite database path (default: ./data/studio.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_SMTP_HOST       SMTP relay host (email disabled when empty)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_GEOIP_DB_PATH   GeoLite2-Country.mmdb path (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
		_, _ = fmt.Printf("studio-api %s\n", info)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to mirror WARN and ERROR records into analytics
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewSystemLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := store.Seed(ctx, db, store.AdminSeed{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	mail := mailer.New(cfg, store.New(db))
	if mail.Enabled() {
		slog.Info("mailer enabled", "host", cfg.SMTPHost, "from", cfg.SMTPFrom)
	} else {
		slog.Warn("mailer disabled, no SMTP host configured")
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip unavailable", "error", err)
	} else if geo.Enabled() {
		slog.Info("geoip enabled", "path", cfg.GeoIPDBPath)
	}
	defer func() { _ = geo.Close() }()

	images := imaging.NewProcessor(cfg.UploadsDir, "/uploads")

	issuer := auth.NewIssuer(cfg.AuthSecret)
	h := api.NewHandler(db, cfg, mail, geo, images)
	h.SetVersionInfo(versionInfo)
	authHandler := api.NewAuthHandler(h, issuer)

	sched := scheduler.New(db, mail, geo, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	publicLimiter := middleware.NewPublicRateLimiter(cfg.PublicRateRPS, cfg.PublicRateBurst)
	r := newRouter(h, authHandler, issuer, db, publicLimiter)

	// Serve processed uploads
	uploadsDir, err := filepath.Abs(cfg.UploadsDir)
	if err != nil {
		return fmt.Errorf("resolving uploads directory: %w", err)
	}
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newRouter assembles the API route tree under /api/v1.
func newRouter(h *api.Handler, authHandler *api.AuthHandler, issuer *auth.Issuer, db *sql.DB, publicLimiter *middleware.PublicRateLimiter) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/auth/login", authHandler.Login)

		// Public surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(issuer, db))

			r.Get("/blog", h.ListPosts)
			r.Get("/blog/slug/{slug}", h.GetPostBySlug)

			r.Get("/portfolio", h.ListImages)
			r.Get("/portfolio/featured", h.ListFeaturedImages)
			r.Get("/portfolio/categories/list", h.ListCategories)
			r.Get("/portfolio/categories", h.ListCategories)
			r.Get("/portfolio/category/{category}", h.ListImagesByCategory)

			// Form and tracking endpoints are rate limited per client IP
			r.Group(func(r chi.Router) {
				r.Use(publicLimiter.Middleware())

				r.Post("/contacts", h.CreateContact)
				r.Post("/email/contact", h.SendContactEmail)
				r.Post("/email/newsletter", h.NewsletterSignup)
				r.Post("/analytics/track", h.TrackEvent)
			})
		})

		// Admin surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(issuer, db))
			r.Use(middleware.RequireRole(model.RoleAdmin))

			r.Get("/contacts", h.ListContacts)
			r.Get("/contacts/stats/overview", h.ContactStats)
			r.Get("/contacts/{id}", h.GetContact)
			r.Put("/contacts/{id}", h.UpdateContact)
			r.Delete("/contacts/{id}", h.DeleteContact)

			r.Post("/blog", h.CreatePost)
			r.Get("/blog/{id}", h.GetPost)
			r.Put("/blog/{id}", h.UpdatePost)
			r.Delete("/blog/{id}", h.DeletePost)

			r.Post("/portfolio", h.CreateImage)
			r.Post("/portfolio/upload", h.UploadImage)
			r.Get("/portfolio/{id}", h.GetImage)
			r.Put("/portfolio/{id}", h.UpdateImage)
			r.Delete("/portfolio/{id}", h.DeleteImage)

			r.Post("/email/test", h.TestEmail)

			r.Get("/admin/dashboard", h.Dashboard)
			r.Get("/admin/analytics", h.AdminAnalytics)
			r.Delete("/admin/analytics/cleanup", h.CleanupAnalytics)
			r.Get("/admin/export/contacts", h.ExportContacts)
			r.Get("/admin/system", h.System)
			r.Post("/admin/backup", h.Backup)
		})
	})

	return r
}
