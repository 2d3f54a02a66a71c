package web

import (
	"errors"
	"net/http"

	"github.com/erazemk/najdeno/internal/service"
)

type authForm struct {
	PageData
	Name  string
	Email string
	Next  string
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, http.StatusOK, "login.html", &authForm{
		PageData: s.page(r, "Log in"),
		Next:     r.URL.Query().Get("next"),
	})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	form := &authForm{
		PageData: s.page(r, "Log in"),
		Email:    r.FormValue("email"),
		Next:     r.FormValue("next"),
	}

	_, token, err := s.Auth.Login(r.Context(), form.Email, r.FormValue("password"))
	if err != nil {
		s.formError(w, r, "login.html", form, err)
		return
	}

	setAuthCookie(w, token)
	http.Redirect(w, r, safeNext(form.Next, "/dashboard"), http.StatusSeeOther)
}

// SignupPage handles GET /signup.
func (s *Server) SignupPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, http.StatusOK, "signup.html", &authForm{PageData: s.page(r, "Sign up")})
}

// SignupSubmit handles POST /signup.
func (s *Server) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	form := &authForm{
		PageData: s.page(r, "Sign up"),
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
	}

	if r.FormValue("password") != r.FormValue("confirmPassword") {
		form.Error = "Passwords do not match"
		s.Templates.Render(w, http.StatusBadRequest, "signup.html", form)
		return
	}

	_, token, err := s.Auth.Signup(r.Context(), form.Name, form.Email, r.FormValue("password"))
	if err != nil {
		s.formError(w, r, "signup.html", form, err)
		return
	}

	setAuthCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// formError re-renders a form with the caller-facing message of err.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, page string, form *authForm, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, service.ErrAuth) {
		status = http.StatusUnauthorized
	}
	form.Error = service.Message(err)
	if form.Error == "" {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	s.Templates.Render(w, status, page, form)
}
