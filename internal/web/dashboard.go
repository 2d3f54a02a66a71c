package web

import (
	"net/http"

	"github.com/erazemk/najdeno/internal/model"
)

// Dashboard handles GET /dashboard.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	items, err := s.Items.ListByOwner(r.Context(), claims.UserID)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	var lost, found, resolved int
	for _, it := range items {
		switch {
		case it.Status == model.ItemStatusClaimed:
			resolved++
		case it.Type == model.ItemTypeLost:
			lost++
		default:
			found++
		}
	}

	data := &struct {
		PageData
		Items    []model.Item
		Lost     int
		Found    int
		Resolved int
	}{
		PageData: s.page(r, "My items"),
		Items:    items,
		Lost:     lost,
		Found:    found,
		Resolved: resolved,
	}
	if r.URL.Query().Get("reported") != "" {
		data.Success = "Thanks! Your report has been filed."
	}
	s.Templates.Render(w, http.StatusOK, "dashboard.html", data)
}
