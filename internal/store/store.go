package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

// ErrDuplicate is returned when a unique constraint (user email) is violated.
var ErrDuplicate = errors.New("duplicate record")

// ErrHistoryNotRecorded is returned together with the updated item when a
// status change was saved but its history entry could not be written.
var ErrHistoryNotRecorded = errors.New("status change not recorded in history")

// Store persists users, items and their status history.
//
// Lookups return nil, nil when the record does not exist.
type Store interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	HasAdmin(ctx context.Context) (bool, error)

	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, id string) (*model.Item, error)
	SearchItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	ListItemsByOwner(ctx context.Context, userID string) ([]model.Item, error)
	CountItems(ctx context.Context) (int, error)
	UpdateItemStatus(ctx context.Context, id, status, changedBy string) (*model.Item, error)
	ListStatusChanges(ctx context.Context, itemID string) ([]model.StatusChange, error)

	JWTSecret(ctx context.Context) (string, error)

	Ping(ctx context.Context) error
	Close() error
}

// Open selects a backend from url: mongodb:// and mongodb+srv:// URLs use
// MongoDB, anything else is treated as a SQLite database path.
func Open(ctx context.Context, url string) (Store, error) {
	if db.IsMongoURL(url) {
		client, database, err := db.ConnectMongo(ctx, url)
		if err != nil {
			return nil, err
		}
		return NewMongo(client, database), nil
	}

	database, err := db.Open(url)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewSQLite(database), nil
}

// NewID returns a fresh opaque record identifier.
func NewID() string {
	return uuid.NewString()
}

// now is the creation timestamp source, UTC so stored values sort as text.
func now() time.Time {
	return time.Now().UTC()
}
