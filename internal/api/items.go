package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/service"
)

// ItemsHandler handles item search, reporting and triage endpoints.
type ItemsHandler struct {
	Items  *service.ItemService
	Logger *slog.Logger
}

type itemsResponse struct {
	Items []model.Item `json:"items"`
}

type itemResponse struct {
	Item *model.Item `json:"item"`
}

type updateStatusRequest struct {
	ItemID string `json:"itemId"`
	Status string `json:"status"`
}

type imageResponse struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Search handles GET /api/items/search.
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Items.Search(r.Context(), service.SearchParams{
		Query:    q.Get("query"),
		Type:     q.Get("type"),
		Category: q.Get("category"),
		Limit:    q.Get("limit"),
	})
	if err != nil {
		serviceError(w, r, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, itemsResponse{Items: items})
}

// AdminList handles GET /api/items/admin.
func (h *ItemsHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	items, err := h.Items.ListAll(r.Context())
	if err != nil {
		serviceError(w, r, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, itemsResponse{Items: items})
}

// UpdateStatus handles PUT /api/items/admin.
func (h *ItemsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Items.UpdateStatus(r.Context(), req.ItemID, req.Status, callerID(r))
	if err != nil {
		serviceError(w, r, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, itemResponse{Item: item})
}

// Report handles POST /api/items/report. Anonymous callers file anonymous
// reports.
func (h *ItemsHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req service.ReportInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Items.Report(r.Context(), req, callerID(r))
	if err != nil {
		serviceError(w, r, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusCreated, itemResponse{Item: item})
}

// Mine handles GET /api/items/user. Without a caller (open-admin mode) it
// lists every item.
func (h *ItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	items, err := h.Items.ListByOwner(r.Context(), callerID(r))
	if err != nil {
		serviceError(w, r, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, itemsResponse{Items: items})
}

// History handles GET /api/items/{id}/history.
func (h *ItemsHandler) History(w http.ResponseWriter, r *http.Request) {
	changes, err := h.Items.History(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string][]model.StatusChange{"changes": changes})
}

// UploadImage handles POST /api/items/image. The photo is validated and
// discarded; the response carries the placeholder URL to store on the item.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Normalize(file)
	if errors.Is(err, imaging.ErrTooLarge) || errors.Is(err, imaging.ErrUnsupported) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	jsonResponse(w, http.StatusOK, imageResponse{
		URL:    model.PlaceholderImageURL,
		Width:  photo.Width,
		Height: photo.Height,
	})
}

// callerID returns the authenticated user's id, or "" for anonymous callers.
func callerID(r *http.Request) string {
	if claims := GetClaims(r.Context()); claims != nil {
		return claims.UserID
	}
	return ""
}
