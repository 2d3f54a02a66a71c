package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

// forEachBackend runs fn against a fresh SQLite store, and against a
// throwaway MongoDB database when NAJDENO_TEST_MONGO_URI is set.
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewSQLite(db.NewTestDB(t)))
	})

	t.Run("mongo", func(t *testing.T) {
		fn(t, newTestMongo(t))
	})
}

func newTestMongo(t *testing.T) *Mongo {
	t.Helper()

	uri := os.Getenv("NAJDENO_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("NAJDENO_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connecting to mongo: %v", err)
	}
	database := client.Database("najdeno_test_" + NewID()[:8])
	if err := db.EnsureMongoIndexes(ctx, database); err != nil {
		t.Fatalf("EnsureMongoIndexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = database.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return NewMongo(client, database)
}

func newItem(typ, description, category string, createdAt time.Time) *model.Item {
	return &model.Item{
		Type:        typ,
		Description: description,
		Category:    category,
		Location:    "Library",
		UserID:      model.AnonymousUserID,
		IsAnonymous: true,
		CreatedAt:   createdAt,
	}
}

func TestCreateAndGetUser(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		u := &model.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash"}
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if u.ID == "" {
			t.Fatal("expected ID to be assigned")
		}
		if u.Role != model.RoleUser {
			t.Errorf("expected default role 'user', got %q", u.Role)
		}

		got, err := s.GetUser(ctx, u.ID)
		if err != nil {
			t.Fatalf("GetUser: %v", err)
		}
		if got == nil || got.Email != "alice@example.com" {
			t.Fatalf("expected alice, got %+v", got)
		}
		if got.PasswordHash != "hash" {
			t.Errorf("expected password hash to round-trip, got %q", got.PasswordHash)
		}

		byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail: %v", err)
		}
		if byEmail == nil || byEmail.ID != u.ID {
			t.Errorf("expected lookup by email to find %s, got %+v", u.ID, byEmail)
		}
	})
}

func TestGetMissingUser(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		u, err := s.GetUser(ctx, "nope")
		if err != nil {
			t.Fatalf("GetUser: %v", err)
		}
		if u != nil {
			t.Error("expected nil for missing user")
		}

		u, err = s.GetUserByEmail(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail: %v", err)
		}
		if u != nil {
			t.Error("expected nil for missing email")
		}
	})
}

func TestDuplicateEmail(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if err := s.CreateUser(ctx, &model.User{Name: "A", Email: "dup@example.com", PasswordHash: "h"}); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		err := s.CreateUser(ctx, &model.User{Name: "B", Email: "dup@example.com", PasswordHash: "h"})
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})
}

func TestHasAdmin(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		has, err := s.HasAdmin(ctx)
		if err != nil {
			t.Fatalf("HasAdmin: %v", err)
		}
		if has {
			t.Fatal("expected no admin in empty store")
		}

		s.CreateUser(ctx, &model.User{Name: "U", Email: "u@example.com", PasswordHash: "h"})
		s.CreateUser(ctx, &model.User{Name: "A", Email: "a@example.com", PasswordHash: "h", Role: model.RoleAdmin})

		has, err = s.HasAdmin(ctx)
		if err != nil {
			t.Fatalf("HasAdmin: %v", err)
		}
		if !has {
			t.Error("expected admin to be found")
		}
	})
}

func TestCreateAndGetItem(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		item := newItem(model.ItemTypeLost, "Blue backpack", "Accessories", time.Time{})
		if err := s.CreateItem(ctx, item); err != nil {
			t.Fatalf("CreateItem: %v", err)
		}
		if item.ID == "" || item.CreatedAt.IsZero() {
			t.Fatalf("expected ID and createdAt to be assigned, got %+v", item)
		}
		if item.Status != model.ItemStatusPending {
			t.Errorf("expected status 'pending', got %q", item.Status)
		}

		got, err := s.GetItem(ctx, item.ID)
		if err != nil {
			t.Fatalf("GetItem: %v", err)
		}
		if got == nil {
			t.Fatal("expected item, got nil")
		}
		if got.Description != "Blue backpack" || !got.IsAnonymous || got.UserID != model.AnonymousUserID {
			t.Errorf("unexpected item: %+v", got)
		}

		missing, err := s.GetItem(ctx, "missing")
		if err != nil {
			t.Fatalf("GetItem: %v", err)
		}
		if missing != nil {
			t.Error("expected nil for missing item")
		}
	})
}

func TestSearchItems(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Now().UTC().Add(-time.Hour)

		s.CreateItem(ctx, newItem(model.ItemTypeLost, "Blue BACKPACK", "Accessories", base))
		s.CreateItem(ctx, newItem(model.ItemTypeFound, "Red backpack", "Accessories", base.Add(time.Minute)))
		s.CreateItem(ctx, newItem(model.ItemTypeFound, "Car keys", "Keys", base.Add(2*time.Minute)))
		s.CreateItem(ctx, newItem(model.ItemTypeLost, "100% wool scarf", "Clothing", base.Add(3*time.Minute)))

		tests := []struct {
			name   string
			filter model.ItemFilter
			want   []string
		}{
			{"all", model.ItemFilter{}, []string{"100% wool scarf", "Car keys", "Red backpack", "Blue BACKPACK"}},
			{"case insensitive substring", model.ItemFilter{Query: "backpack"}, []string{"Red backpack", "Blue BACKPACK"}},
			{"type", model.ItemFilter{Query: "backpack", Type: model.ItemTypeLost}, []string{"Blue BACKPACK"}},
			{"category", model.ItemFilter{Category: "Keys"}, []string{"Car keys"}},
			{"limit", model.ItemFilter{Limit: 2}, []string{"100% wool scarf", "Car keys"}},
			{"literal wildcard", model.ItemFilter{Query: "0%"}, []string{"100% wool scarf"}},
			{"literal underscore", model.ItemFilter{Query: "_"}, nil},
			{"regex metacharacters", model.ItemFilter{Query: "car.*"}, nil},
			{"no match", model.ItemFilter{Query: "umbrella"}, nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				items, err := s.SearchItems(ctx, tt.filter)
				if err != nil {
					t.Fatalf("SearchItems: %v", err)
				}
				if items == nil {
					t.Fatal("expected empty slice, got nil")
				}
				if len(items) != len(tt.want) {
					t.Fatalf("expected %d items, got %d", len(tt.want), len(items))
				}
				for i, want := range tt.want {
					if items[i].Description != want {
						t.Errorf("item %d: expected %q, got %q", i, want, items[i].Description)
					}
				}
			})
		}
	})
}

func TestSearchItemsUnicodeCase(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Now().UTC().Add(-time.Hour)

		s.CreateItem(ctx, newItem(model.ItemTypeLost, "Črna denarnica", "Wallets", base))
		s.CreateItem(ctx, newItem(model.ItemTypeFound, "Ärmel Jacke", "Clothing", base.Add(time.Minute)))

		tests := []struct {
			query string
			want  string
		}{
			{"črna", "Črna denarnica"},
			{"ČRNA", "Črna denarnica"},
			{"DENARNICA", "Črna denarnica"},
			{"ärmel", "Ärmel Jacke"},
			{"ÄRMEL", "Ärmel Jacke"},
		}

		for _, tt := range tests {
			items, err := s.SearchItems(ctx, model.ItemFilter{Query: tt.query})
			if err != nil {
				t.Fatalf("SearchItems(%q): %v", tt.query, err)
			}
			if len(items) != 1 || items[0].Description != tt.want {
				t.Errorf("SearchItems(%q): expected %q, got %+v", tt.query, tt.want, items)
			}
		}
	})
}

func TestListItemsByOwner(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Now().UTC().Add(-time.Hour)

		mine := newItem(model.ItemTypeLost, "Mine", "Keys", base)
		mine.UserID = "user-1"
		mine.IsAnonymous = false
		s.CreateItem(ctx, mine)
		s.CreateItem(ctx, newItem(model.ItemTypeFound, "Someone else's", "Keys", base.Add(time.Minute)))

		items, err := s.ListItemsByOwner(ctx, "user-1")
		if err != nil {
			t.Fatalf("ListItemsByOwner: %v", err)
		}
		if len(items) != 1 || items[0].Description != "Mine" {
			t.Errorf("expected only own item, got %+v", items)
		}

		all, err := s.ListItems(ctx)
		if err != nil {
			t.Fatalf("ListItems: %v", err)
		}
		if len(all) != 2 || all[0].Description != "Someone else's" {
			t.Errorf("expected 2 items newest first, got %+v", all)
		}

		n, err := s.CountItems(ctx)
		if err != nil {
			t.Fatalf("CountItems: %v", err)
		}
		if n != 2 {
			t.Errorf("expected count 2, got %d", n)
		}
	})
}

func TestUpdateItemStatus(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		item := newItem(model.ItemTypeLost, "Umbrella", "Other", time.Time{})
		s.CreateItem(ctx, item)

		updated, err := s.UpdateItemStatus(ctx, item.ID, model.ItemStatusMatched, "admin-1")
		if err != nil {
			t.Fatalf("UpdateItemStatus: %v", err)
		}
		if updated == nil || updated.Status != model.ItemStatusMatched {
			t.Fatalf("expected matched item, got %+v", updated)
		}
		if updated.Description != "Umbrella" {
			t.Errorf("expected other fields untouched, got %+v", updated)
		}

		// Mongo stores millisecond timestamps.
		time.Sleep(2 * time.Millisecond)

		// Backwards transitions are allowed.
		if _, err := s.UpdateItemStatus(ctx, item.ID, model.ItemStatusPending, "admin-1"); err != nil {
			t.Fatalf("UpdateItemStatus: %v", err)
		}

		changes, err := s.ListStatusChanges(ctx, item.ID)
		if err != nil {
			t.Fatalf("ListStatusChanges: %v", err)
		}
		if len(changes) != 2 {
			t.Fatalf("expected 2 status changes, got %d", len(changes))
		}
		latest := changes[0]
		if latest.FromStatus != model.ItemStatusMatched || latest.ToStatus != model.ItemStatusPending {
			t.Errorf("expected matched -> pending first, got %s -> %s", latest.FromStatus, latest.ToStatus)
		}
		if latest.ChangedBy != "admin-1" {
			t.Errorf("expected changedBy 'admin-1', got %q", latest.ChangedBy)
		}
	})
}

func TestUpdateMissingItemStatus(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		item, err := s.UpdateItemStatus(ctx, "missing", model.ItemStatusClaimed, "")
		if err != nil {
			t.Fatalf("UpdateItemStatus: %v", err)
		}
		if item != nil {
			t.Errorf("expected nil for missing item, got %+v", item)
		}

		changes, err := s.ListStatusChanges(ctx, "missing")
		if err != nil {
			t.Fatalf("ListStatusChanges: %v", err)
		}
		if len(changes) != 0 {
			t.Errorf("expected no history for missing item, got %d", len(changes))
		}
	})
}

func TestJWTSecret_GeneratesAndPersists(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		secret1, err := s.JWTSecret(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(secret1) != 64 { // 32 bytes = 64 hex chars
			t.Fatalf("expected 64 hex chars, got %d", len(secret1))
		}

		secret2, err := s.JWTSecret(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if secret1 != secret2 {
			t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
		}
	})
}

func TestSeedSampleItems(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		n, err := SeedSampleItems(ctx, s)
		if err != nil {
			t.Fatalf("SeedSampleItems: %v", err)
		}
		if n != len(sampleItems) {
			t.Fatalf("expected %d seeded items, got %d", len(sampleItems), n)
		}

		// Seeding a non-empty store is a no-op.
		n, err = SeedSampleItems(ctx, s)
		if err != nil {
			t.Fatalf("SeedSampleItems: %v", err)
		}
		if n != 0 {
			t.Errorf("expected no items on second seed, got %d", n)
		}

		items, _ := s.SearchItems(ctx, model.ItemFilter{Query: "backpack"})
		if len(items) != 1 || !items[0].IsAnonymous {
			t.Errorf("expected anonymous sample backpack, got %+v", items)
		}
	})
}

func TestOpenSQLite(t *testing.T) {
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, ok := s.(*SQLite); !ok {
		t.Fatalf("expected SQLite backend, got %T", s)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
