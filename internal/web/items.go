package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/service"
)

// recentCount is how many items the home page shows.
const recentCount = 6

// Home handles GET /.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	recent, err := s.Items.Search(r.Context(), service.SearchParams{Limit: strconv.Itoa(recentCount)})
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	s.Templates.Render(w, http.StatusOK, "home.html", &struct {
		PageData
		Recent []model.Item
	}{
		PageData: s.page(r, "Lost & Found"),
		Recent:   recent,
	})
}

// SearchPage handles GET /search.
func (s *Server) SearchPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := service.SearchParams{
		Query:    q.Get("query"),
		Type:     q.Get("type"),
		Category: q.Get("category"),
		Limit:    q.Get("limit"),
	}

	items, err := s.Items.Search(r.Context(), params)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	s.Templates.Render(w, http.StatusOK, "search.html", &struct {
		PageData
		Params     service.SearchParams
		Items      []model.Item
		Categories []string
		AllLabel   string
	}{
		PageData:   s.page(r, "Search"),
		Params:     params,
		Items:      items,
		Categories: model.Categories,
		AllLabel:   model.AllCategories,
	})
}

type reportForm struct {
	PageData
	Input      service.ReportInput
	Categories []string
	Locations  []string
}

func (s *Server) reportForm(r *http.Request) *reportForm {
	return &reportForm{
		PageData:   s.page(r, "Report an item"),
		Categories: model.Categories,
		Locations:  model.Locations,
	}
}

// ReportPage handles GET /report.
func (s *Server) ReportPage(w http.ResponseWriter, r *http.Request) {
	form := s.reportForm(r)
	form.Input.Type = r.URL.Query().Get("type")
	s.Templates.Render(w, http.StatusOK, "report.html", form)
}

// ReportSubmit handles POST /report. Visitors who are not signed in file
// anonymous reports.
func (s *Server) ReportSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	form := s.reportForm(r)

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		form.Error = "The upload is too large or malformed."
		s.Templates.Render(w, http.StatusBadRequest, "report.html", form)
		return
	}

	form.Input = service.ReportInput{
		Type:        r.FormValue("type"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Location:    r.FormValue("location"),
		ContactInfo: r.FormValue("contactInfo"),
	}

	if file, _, err := r.FormFile("image"); err == nil {
		_, err := imaging.Normalize(file)
		file.Close()
		if err != nil {
			form.Error = "Photo must be a JPEG or PNG image under 5 MiB."
			s.Templates.Render(w, http.StatusBadRequest, "report.html", form)
			return
		}
		form.Input.Image = model.PlaceholderImageURL
	}

	var owner string
	if claims := GetWebClaims(r.Context()); claims != nil {
		owner = claims.UserID
	}

	item, err := s.Items.Report(r.Context(), form.Input, owner)
	if errors.Is(err, service.ErrValidation) {
		form.Error = service.Message(err)
		s.Templates.Render(w, http.StatusBadRequest, "report.html", form)
		return
	}
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	dest := "/search?reported=" + url.QueryEscape(item.ID)
	if owner != "" {
		dest = "/dashboard?reported=" + url.QueryEscape(item.ID)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// AdminPage handles GET /admin.
func (s *Server) AdminPage(w http.ResponseWriter, r *http.Request) {
	items, err := s.Items.ListAll(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	counts := map[string]int{}
	for _, it := range items {
		counts[it.Status]++
	}

	data := &struct {
		PageData
		Items  []model.Item
		Counts map[string]int
	}{
		PageData: s.page(r, "Admin"),
		Items:    items,
		Counts:   counts,
	}
	if r.URL.Query().Get("updated") != "" {
		data.Success = "Status updated."
	}
	s.Templates.Render(w, http.StatusOK, "admin.html", data)
}

// AdminStatusSubmit handles POST /admin/items/{id}/status.
func (s *Server) AdminStatusSubmit(w http.ResponseWriter, r *http.Request) {
	var actor string
	if claims := GetWebClaims(r.Context()); claims != nil {
		actor = claims.UserID
	}

	_, err := s.Items.UpdateStatus(r.Context(), r.PathValue("id"), r.FormValue("status"), actor)
	switch {
	case errors.Is(err, service.ErrNotFound):
		s.fail(w, r, http.StatusNotFound, err)
		return
	case errors.Is(err, service.ErrValidation):
		s.fail(w, r, http.StatusBadRequest, err)
		return
	case err != nil:
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	http.Redirect(w, r, "/admin?updated=1", http.StatusSeeOther)
}

// HistoryPage handles GET /admin/items/{id}.
func (s *Server) HistoryPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	changes, err := s.Items.History(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	s.Templates.Render(w, http.StatusOK, "history.html", &struct {
		PageData
		ItemID  string
		Changes []model.StatusChange
	}{
		PageData: s.page(r, "Status history"),
		ItemID:   id,
		Changes:  changes,
	})
}
