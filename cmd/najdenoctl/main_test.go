package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/najdeno/internal/api"
	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/client"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/service"
	"github.com/erazemk/najdeno/internal/store"
)

func TestCommands(t *testing.T) {
	s := store.NewSQLite(db.NewTestDB(t))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := service.NewAuthService(s, "test-secret", logger)
	server := httptest.NewServer(api.NewRouter(api.Config{
		Auth:   authSvc,
		Items:  service.NewItemService(s, logger),
		Store:  s,
		Logger: logger,
	}))
	t.Cleanup(server.Close)

	adminPassword, err := authSvc.EnsureAdmin(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	session := filepath.Join(t.TempDir(), "session.json")
	exec := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		full := append([]string{"-server", server.URL, "-session", session}, args...)
		if err := run(full, &out); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	if got := exec("whoami"); !strings.Contains(got, "Not logged in") {
		t.Errorf("expected anonymous whoami, got %q", got)
	}

	got := exec("report", "-type", "lost", "-description", "Blue backpack", "-category", "Accessories", "-location", "Library")
	if !strings.Contains(got, "Reported lost item") {
		t.Errorf("unexpected report output %q", got)
	}
	id := strings.TrimSpace(got[strings.LastIndex(got, " "):])

	if got := exec("search", "-q", "backpack"); !strings.Contains(got, id) {
		t.Errorf("expected search to list %s, got %q", id, got)
	}

	exec("login", "-email", "admin@example.com", "-password", adminPassword)
	if got := exec("whoami"); !strings.Contains(got, "role=admin") {
		t.Errorf("expected admin session to persist, got %q", got)
	}

	exec("admin", "status", id, "claimed")
	if got := exec("history", id); !strings.Contains(got, "claimed") {
		t.Errorf("expected history entry, got %q", got)
	}
	if got := exec("admin", "list"); !strings.Contains(got, "claimed") {
		t.Errorf("expected claimed item in admin list, got %q", got)
	}

	exec("logout")
	if got := exec("whoami"); !strings.Contains(got, "Not logged in") {
		t.Errorf("expected logout to clear session, got %q", got)
	}

	var out bytes.Buffer
	if err := run([]string{"-server", server.URL, "-session", session, "admin", "list"}, &out); err == nil {
		t.Error("expected admin list to fail without a session")
	}
}

func TestExpiredSessionIsDropped(t *testing.T) {
	claims := auth.Claims{
		UserID: "u1",
		Email:  "eva@example.com",
		Role:   model.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	session := filepath.Join(t.TempDir(), "session.json")
	if err := client.SaveSession(session, &client.Session{Token: token, User: &model.User{Email: "eva@example.com"}}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	// No server is needed: the expiry check runs before any request.
	var out bytes.Buffer
	if err := run([]string{"-server", "http://127.0.0.1:0", "-session", session, "whoami"}, &out); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out.String(), "Session expired") || !strings.Contains(out.String(), "Not logged in") {
		t.Errorf("expected expiry notice, got %q", out.String())
	}

	if got, _ := client.LoadSession(session); got != nil {
		t.Error("expected expired session file to be removed")
	}
}
