package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/najdeno/internal/ratelimit"
	"github.com/erazemk/najdeno/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires the API router.
type Config struct {
	Auth    *service.AuthService
	Items   *service.ItemService
	Store   Pinger
	Limiter ratelimit.Limiter
	Logger  *slog.Logger

	// OpenAdmin lets anonymous callers use the admin and per-user routes.
	OpenAdmin bool
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Auth: cfg.Auth, Logger: cfg.Logger}
	itemsHandler := &ItemsHandler{Items: cfg.Items, Logger: cfg.Logger}

	authMW := OptionalAuth(cfg.Auth)
	requireUser := RequireUser(cfg.OpenAdmin)
	requireAdmin := RequireAdmin(cfg.OpenAdmin)
	limit := func(h http.Handler) http.Handler { return h }
	if cfg.Limiter != nil {
		limit = RateLimit(cfg.Limiter, cfg.Logger)
	}

	// Auth.
	mux.Handle("POST /api/auth/signup", limit(http.HandlerFunc(authHandler.Signup)))
	mux.Handle("POST /api/auth/login", limit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("GET /api/auth/me", authHandler.Me)

	// Items: public.
	mux.HandleFunc("GET /api/items/search", itemsHandler.Search)
	mux.Handle("POST /api/items/report", authMW(http.HandlerFunc(itemsHandler.Report)))
	mux.HandleFunc("POST /api/items/image", itemsHandler.UploadImage)

	// Items: signed in.
	mux.Handle("GET /api/items/user", authMW(requireUser(http.HandlerFunc(itemsHandler.Mine))))

	// Items: admin.
	mux.Handle("GET /api/items/admin", authMW(requireAdmin(http.HandlerFunc(itemsHandler.AdminList))))
	mux.Handle("PUT /api/items/admin", authMW(requireAdmin(http.HandlerFunc(itemsHandler.UpdateStatus))))
	mux.Handle("GET /api/items/{id}/history", authMW(requireAdmin(http.HandlerFunc(itemsHandler.History))))

	// Probes.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := cfg.Store.Ping(ctx); err != nil {
			cfg.Logger.Warn("readiness check failed", "error", err)
			jsonError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	return mux
}
