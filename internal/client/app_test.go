package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/api"
	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/service"
	"github.com/erazemk/najdeno/internal/store"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	url           string
	adminPassword string
}

func setupServer(t *testing.T) fixture {
	t.Helper()

	s := store.NewSQLite(db.NewTestDB(t))
	authSvc := service.NewAuthService(s, "test-secret", discard)
	router := api.NewRouter(api.Config{
		Auth:   authSvc,
		Items:  service.NewItemService(s, discard),
		Store:  s,
		Logger: discard,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	password, err := authSvc.EnsureAdmin(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	return fixture{url: server.URL, adminPassword: password}
}

func TestAppFlow(t *testing.T) {
	f := setupServer(t)
	ctx := context.Background()

	visitor := NewApp(New(f.url), discard)
	item, err := visitor.Report(ctx, Report{
		Type: "lost", Description: "Blue backpack", Category: "Accessories", Location: "Library",
	})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if !item.IsAnonymous || item.UserID != model.AnonymousUserID {
		t.Errorf("expected anonymous item, got %+v", item)
	}
	if st := visitor.State(); len(st.Items) != 1 || st.Loading {
		t.Errorf("expected reported item in state, got %+v", st)
	}

	if err := visitor.Search(ctx, Query{Text: "backpack"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := visitor.State().Items; len(got) != 1 || got[0].ID != item.ID {
		t.Errorf("expected search hit, got %+v", got)
	}

	admin := NewApp(New(f.url), discard)
	if err := admin.Login(ctx, "admin@example.com", f.adminPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := admin.ListAdmin(ctx); err != nil {
		t.Fatalf("ListAdmin: %v", err)
	}
	if err := admin.UpdateStatus(ctx, item.ID, model.ItemStatusClaimed); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got := admin.State().Items; len(got) != 1 || got[0].Status != model.ItemStatusClaimed {
		t.Errorf("expected patched status, got %+v", got)
	}

	changes, err := admin.History(ctx, item.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(changes) != 1 || changes[0].ToStatus != model.ItemStatusClaimed {
		t.Errorf("unexpected history %+v", changes)
	}

	user, err := admin.WhoAmI(ctx)
	if err != nil || user.Role != model.RoleAdmin {
		t.Errorf("expected admin user, got %+v, %v", user, err)
	}
}

func TestAppFailureKeepsState(t *testing.T) {
	f := setupServer(t)
	ctx := context.Background()

	app := NewApp(New(f.url), discard)
	if err := app.Signup(ctx, "Eva", "eva@example.com", "secret1"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := app.Report(ctx, Report{Type: "found", Description: "Keys", Category: "Keys", Location: "Gym"}); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if err := app.ListUser(ctx); err != nil {
		t.Fatalf("ListUser: %v", err)
	}

	err := app.UpdateStatus(ctx, app.State().Items[0].ID, model.ItemStatusClaimed)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %v", err)
	}

	st := app.State()
	if st.Err == nil || st.Loading {
		t.Errorf("expected recorded error, got %+v", st)
	}
	if len(st.Items) != 1 || st.Items[0].Status != model.ItemStatusPending || st.Session == nil {
		t.Errorf("expected prior state to survive failure, got %+v", st)
	}

	err = app.Signup(ctx, "Eva", "eva@example.com", "secret1")
	if !errors.As(err, &apiErr) || apiErr.Message != "Email already registered" {
		t.Errorf("expected duplicate email error, got %v", err)
	}
}

func TestAppExpiry(t *testing.T) {
	f := setupServer(t)
	ctx := context.Background()

	app := NewApp(New(f.url), discard)
	if err := app.Signup(ctx, "Eva", "eva@example.com", "secret1"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	sess := app.State().Session

	if app.CheckExpiry() {
		t.Fatal("fresh token should not be expired")
	}

	expired := 0
	later := NewApp(New(f.url), discard)
	later.now = func() time.Time { return time.Now().Add(auth.TokenExpiry + time.Hour) }
	later.OnExpired = func() { expired++ }

	if later.Restore(sess) {
		t.Error("expected expired session to be refused")
	}
	if expired != 1 || later.State().Session != nil {
		t.Errorf("expected hook and cleared state, got %d calls, %+v", expired, later.State())
	}

	app.now = later.now
	app.OnExpired = func() { expired++ }
	if !app.CheckExpiry() {
		t.Error("expected held session to expire")
	}
	if expired != 2 || app.State().Session != nil {
		t.Errorf("expected hook and cleared state, got %d calls", expired)
	}
}

func TestWatchExpiry(t *testing.T) {
	f := setupServer(t)

	app := NewApp(New(f.url), discard)
	if err := app.Signup(context.Background(), "Eva", "eva@example.com", "secret1"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	app.now = func() time.Time { return time.Now().Add(auth.TokenExpiry + time.Hour) }

	done := make(chan struct{})
	app.OnExpired = func() { close(done) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.WatchExpiry(ctx, 10*time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry watcher did not fire")
	}
}

func TestSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	got, err := LoadSession(path)
	if err != nil || got != nil {
		t.Fatalf("expected nil session for missing file, got %+v, %v", got, err)
	}

	want := &Session{Token: "abc", User: &model.User{ID: "u1", Email: "a@example.com", Role: model.RoleUser}}
	if err := SaveSession(path, want); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	got, err = LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if got.Token != "abc" || got.User.Email != "a@example.com" {
		t.Errorf("unexpected session %+v", got)
	}

	if err := RemoveSession(path); err != nil {
		t.Fatalf("RemoveSession: %v", err)
	}
	if err := RemoveSession(path); err != nil {
		t.Errorf("removing a missing session should succeed, got %v", err)
	}
}
