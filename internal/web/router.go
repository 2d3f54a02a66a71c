package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/najdeno/internal/service"
	webembed "github.com/erazemk/najdeno/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(authSvc *service.AuthService, items *service.ItemService, logger *slog.Logger, openAdmin bool) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Auth:      authSvc,
		Items:     items,
		Templates: templates,
		Logger:    logger,
		OpenAdmin: openAdmin,
	}

	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public pages.
	mux.HandleFunc("GET /{$}", s.Home)
	mux.HandleFunc("GET /search", s.SearchPage)
	mux.HandleFunc("GET /report", s.ReportPage)
	mux.HandleFunc("POST /report", s.ReportSubmit)

	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /signup", s.SignupPage)
	mux.HandleFunc("POST /signup", s.SignupSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Signed in.
	mux.HandleFunc("GET /dashboard", requireLogin(s.Dashboard))

	// Admin.
	mux.HandleFunc("GET /admin", s.requireAdmin(s.AdminPage))
	mux.HandleFunc("POST /admin/items/{id}/status", s.requireAdmin(s.AdminStatusSubmit))
	mux.HandleFunc("GET /admin/items/{id}", s.requireAdmin(s.HistoryPage))

	return s.CookieAuthMiddleware(mux), nil
}
