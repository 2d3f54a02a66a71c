package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/najdeno/internal/api"
	"github.com/erazemk/najdeno/internal/config"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/ratelimit"
	"github.com/erazemk/najdeno/internal/service"
	"github.com/erazemk/najdeno/internal/store"
	"github.com/erazemk/najdeno/internal/web"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger builds the process logger. INFO/WARN go to stdout, ERROR to
// stderr, and with a logPath every level is also appended to that file.
// The returned cleanup closes the file and is nil when none was opened.
func setupLogger(logPath string) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	logger := slog.New(&levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	})
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := setupLogger(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	s, err := store.Open(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	logger.Info("store ready", "backend", backendName(cfg.DatabaseURL))

	secret := cfg.JWTSecret
	if secret == "" {
		// Generated on first run and persisted with the data.
		secret, err = s.JWTSecret(ctx)
		if err != nil {
			return fmt.Errorf("loading JWT secret: %w", err)
		}
	}

	authSvc := service.NewAuthService(s, secret, logger)
	itemSvc := service.NewItemService(s, logger)

	password, err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail)
	if err != nil {
		return fmt.Errorf("creating admin account: %w", err)
	}
	if password != "" {
		printInitResult(cfg.AdminEmail, password)
		fmt.Println()
	}

	if cfg.SeedSamples {
		n, err := store.SeedSampleItems(ctx, s)
		if err != nil {
			return fmt.Errorf("seeding sample items: %w", err)
		}
		if n > 0 {
			logger.Info("sample items added", "count", n)
		}
	}

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	if cfg.OpenAdmin {
		logger.Warn("open admin mode: admin endpoints accept anonymous callers")
	}

	// Set up routers.
	apiRouter := api.NewRouter(api.Config{
		Auth:      authSvc,
		Items:     itemSvc,
		Store:     s,
		Limiter:   limiter,
		Logger:    logger,
		OpenAdmin: cfg.OpenAdmin,
	})
	webRouter, err := web.NewRouter(authSvc, itemSvc, logger, cfg.OpenAdmin)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// Combine: API routes and probes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/healthz", apiRouter)
	mux.Handle("/readyz", apiRouter)
	mux.Handle("/", webRouter)

	handler := api.RequestID(api.LoggingMiddleware(logger)(api.CORS(cfg.CORSOrigins)(mux)))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		logger.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	logger.Info("server stopped, closing store")
	return nil
}

// newLimiter picks the shared Redis limiter when a URL is configured and
// the in-process one otherwise.
func newLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		return ratelimit.NewMemory(cfg.AuthRateLimit, time.Minute), func() {}, nil
	}
	rl, err := ratelimit.NewRedis(ctx, cfg.RedisURL, cfg.AuthRateLimit, time.Minute)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return rl, func() { rl.Close() }, nil
}

func backendName(url string) string {
	if db.IsMongoURL(url) {
		return "mongodb"
	}
	return "sqlite"
}

// printInitResult prints the bootstrap admin credentials to stdout.
func printInitResult(email, password string) {
	fmt.Println("Admin account created:")
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it is not shown again.")
}
