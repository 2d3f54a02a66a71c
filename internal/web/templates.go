package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/service"
	webembed "github.com/erazemk/najdeno/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"statusName": func(status string) string {
			switch status {
			case model.ItemStatusPending:
				return "Pending"
			case model.ItemStatusMatched:
				return "Matched"
			case model.ItemStatusClaimed:
				return "Claimed"
			default:
				return status
			}
		},
		"typeName": func(typ string) string {
			switch typ {
			case model.ItemTypeLost:
				return "Lost"
			case model.ItemTypeFound:
				return "Found"
			default:
				return typ
			}
		},
		"formatDate": formatDate,
		"truncate":   truncate,
		"statuses": func() []string {
			return []string{model.ItemStatusPending, model.ItemStatusMatched, model.ItemStatusClaimed}
		},
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006, 03:04 PM")
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(n int, s string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

var pages = []string{
	"home.html",
	"search.html",
	"report.html",
	"login.html",
	"signup.html",
	"dashboard.html",
	"admin.html",
	"history.html",
	"error.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data and status code.
func (ts *Templates) Render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title     string
	User      *auth.Claims
	Error     string
	Success   string
	OpenAdmin bool
}

// Server holds all dependencies for page handlers.
type Server struct {
	Auth      *service.AuthService
	Items     *service.ItemService
	Templates *Templates
	Logger    *slog.Logger
	OpenAdmin bool
}

func (s *Server) page(r *http.Request, title string) PageData {
	return PageData{Title: title, User: GetWebClaims(r.Context()), OpenAdmin: s.OpenAdmin}
}

// fail renders the error page. Unclassified errors are logged and shown
// with a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := service.Message(err)
	if msg == "" {
		s.Logger.Error("page failed", "path", r.URL.Path, "error", err)
		msg = "Something went wrong. Please try again."
	}
	data := s.page(r, "Error")
	data.Error = msg
	s.Templates.Render(w, status, "error.html", &data)
}
