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

	"github.com/saif-byte/event-website/internal/auth"
	"github.com/saif-byte/event-website/internal/cache"
	"github.com/saif-byte/event-website/internal/config"
	"github.com/saif-byte/event-website/internal/handler"
	"github.com/saif-byte/event-website/internal/logging"
	"github.com/saif-byte/event-website/internal/middleware"
	"github.com/saif-byte/event-website/internal/notify"
	"github.com/saif-byte/event-website/internal/registration"
	"github.com/saif-byte/event-website/internal/scheduler"
	"github.com/saif-byte/event-website/internal/store"
	"github.com/saif-byte/event-website/internal/version"
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
		_, _ = fmt.Fprintf(os.Stderr, "eventsite - Event RSVP service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RSVP_JWT_SECRET      Token signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RSVP_DB_PATH         SQLite database path (default: ./data/rsvp.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RSVP_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RSVP_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RSVP_REDIS_URL       Redis URL for the listing cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RSVP_MAIL_API_KEY    Transactional mail API key (empty disables mail)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RSVP_DO_SEED         Seed a default admin account (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
		_, _ = fmt.Printf("eventsite %s\n", info)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
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

	// Setup logger
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
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
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

	// Upgrade logger to also write WARN and ERROR logs to the audit log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	auditHandler := logging.NewAuditLogHandler(textHandler, db)
	logger = slog.New(auditHandler)
	slog.SetDefault(logger)
	slog.Info("audit log integration enabled", "min_level", "warn")

	// Seed default data
	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	// Listing cache: Redis when configured, memory otherwise
	listCache := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     "rsvp:",
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
	}, logger)
	defer listCache.Close()

	// Transactional mail
	mailer := notify.NewMailer(notify.Config{
		APIURL:  cfg.MailAPIURL,
		APIKey:  cfg.MailAPIKey,
		Sender:  cfg.MailSender,
		Workers: cfg.MailWorkers,
	}, logger)
	mailer.Start(ctx)
	defer mailer.Stop()

	// Registration engine
	engine := registration.New(db, mailer)

	// Reminder scheduler
	sched := scheduler.New(db, mailer, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Bearer tokens
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	// Handlers
	h := handler.NewHandler(db, engine, tokens, listCache, logger)
	h.SetVersion(versionInfo)

	// Rate limiter for the public write endpoints
	publicRateLimiter := middleware.NewRateLimiter(10.0, 20)
	slog.Info("public rate limiter initialized", "rate", "10 req/s", "burst", 20)

	requireAuth := middleware.RequireAuth(tokens, db)
	optionalAuth := middleware.OptionalAuth(tokens, db)

	// Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Status)

		r.Route("/auth", func(r chi.Router) {
			r.Use(publicRateLimiter.Middleware())
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
		})

		r.Route("/events", func(r chi.Router) {
			r.With(optionalAuth).Get("/", h.ListEvents)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/{eventID}/register", h.RegisterForEvent)
				r.Delete("/{eventID}/unregister", h.UnregisterFromEvent)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Use(middleware.RequireAdmin)
				r.Post("/", h.CreateEvent)
				r.Put("/{eventID}", h.UpdateEvent)
				r.Delete("/{eventID}", h.DeleteEvent)
				r.Get("/{eventID}/registered-users", h.RegisteredUsers)
				r.Post("/mark-payment", h.MarkPayment)
			})
		})

		r.Route("/contact", func(r chi.Router) {
			r.With(publicRateLimiter.Middleware()).Post("/", h.SubmitContact)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Use(middleware.RequireAdmin)
				r.Get("/all", h.ListContacts)
				r.Post("/{contactID}/seen", h.MarkContactSeen)
			})
		})
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
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
