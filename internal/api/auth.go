package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/service"
)

// AuthHandler handles signup, login and session lookup.
type AuthHandler struct {
	Auth   *service.AuthService
	Logger *slog.Logger
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type meResponse struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	User            *model.User `json:"user,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.Auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		serviceError(w, r, h.Logger, err)
		return
	}

	jsonResponse(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		serviceError(w, r, h.Logger, err)
		return
	}

	jsonResponse(w, http.StatusOK, authResponse{User: user, Token: token})
}

// Me handles GET /api/auth/me. Token problems are reported in the body
// with status 200 so clients can treat them as "signed out".
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Auth.CurrentUser(r.Context(), BearerToken(r))
	if errors.Is(err, service.ErrAuth) {
		jsonResponse(w, http.StatusOK, meResponse{Error: service.Message(err)})
		return
	}
	if err != nil {
		serviceError(w, r, h.Logger, err)
		return
	}

	jsonResponse(w, http.StatusOK, meResponse{IsAuthenticated: true, User: user})
}
