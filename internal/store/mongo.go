package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

// Mongo is the document-store backend.
type Mongo struct {
	client   *mongo.Client
	users    *mongo.Collection
	items    *mongo.Collection
	changes  *mongo.Collection
	settings *mongo.Collection
}

// NewMongo wraps a connected client and its database.
func NewMongo(client *mongo.Client, database *mongo.Database) *Mongo {
	return &Mongo{
		client:   client,
		users:    database.Collection(db.CollectionUsers),
		items:    database.Collection(db.CollectionItems),
		changes:  database.Collection(db.CollectionStatusChanges),
		settings: database.Collection(db.CollectionSettings),
	}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// Ping checks that the deployment answers.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

// CreateUser inserts u, assigning its ID and creation time when unset.
func (m *Mongo) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if !model.ValidRole(u.Role) {
		return fmt.Errorf("creating user: invalid role %q", u.Role)
	}

	_, err := m.users.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID.
func (m *Mongo) GetUser(ctx context.Context, id string) (*model.User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

// GetUserByEmail returns a user by (normalized) email address.
func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

func (m *Mongo) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	u := &model.User{}
	err := m.users.FindOne(ctx, filter).Decode(u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// HasAdmin reports whether at least one admin account exists.
func (m *Mongo) HasAdmin(ctx context.Context) (bool, error) {
	n, err := m.users.CountDocuments(ctx, bson.M{"role": model.RoleAdmin}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("counting admins: %w", err)
	}
	return n > 0, nil
}

// CreateItem inserts item, assigning its ID and creation time when unset.
func (m *Mongo) CreateItem(ctx context.Context, item *model.Item) error {
	if item.ID == "" {
		item.ID = NewID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now()
	}
	if item.Status == "" {
		item.Status = model.ItemStatusPending
	}

	if _, err := m.items.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("creating item: %w", err)
	}
	return nil
}

// GetItem returns an item by ID.
func (m *Mongo) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item := &model.Item{}
	err := m.items.FindOne(ctx, bson.M{"_id": id}).Decode(item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// SearchItems returns items matching filter, newest first. The query is a
// case-insensitive substring match on the description.
func (m *Mongo) SearchItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	q := bson.M{}
	if filter.Query != "" {
		q["description"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Query), Options: "i"}
	}
	if filter.Type != "" {
		q["type"] = filter.Type
	}
	if filter.Category != "" {
		q["category"] = filter.Category
	}

	opts := options.Find().SetSort(newestFirst)
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	return m.findItems(ctx, q, opts)
}

// ListItems returns every item, newest first.
func (m *Mongo) ListItems(ctx context.Context) ([]model.Item, error) {
	return m.findItems(ctx, bson.M{}, options.Find().SetSort(newestFirst))
}

// ListItemsByOwner returns the items reported by userID, newest first.
func (m *Mongo) ListItemsByOwner(ctx context.Context, userID string) ([]model.Item, error) {
	return m.findItems(ctx, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
}

func (m *Mongo) findItems(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Item, error) {
	cur, err := m.items.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("finding items: %w", err)
	}
	items := []model.Item{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	return items, nil
}

// CountItems returns the number of stored items.
func (m *Mongo) CountItems(ctx context.Context) (int, error) {
	n, err := m.items.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return int(n), nil
}

// UpdateItemStatus overwrites an item's status and records the change.
// Returns nil, nil when the item does not exist. The two writes are not
// atomic: when only the history insert fails, the updated item is returned
// with ErrHistoryNotRecorded.
func (m *Mongo) UpdateItemStatus(ctx context.Context, id, status, changedBy string) (*model.Item, error) {
	previous := &model.Item{}
	err := m.items.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(previous)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("updating item status: %w", err)
	}

	change := model.StatusChange{
		ID:         NewID(),
		ItemID:     id,
		FromStatus: previous.Status,
		ToStatus:   status,
		ChangedBy:  changedBy,
		ChangedAt:  now(),
	}
	updated := *previous
	updated.Status = status

	// The status is already saved; report the missing history entry
	// without hiding the update.
	if _, err := m.changes.InsertOne(ctx, change); err != nil {
		return &updated, fmt.Errorf("%w: %v", ErrHistoryNotRecorded, err)
	}
	return &updated, nil
}

// ListStatusChanges returns the status history of an item, newest first.
func (m *Mongo) ListStatusChanges(ctx context.Context, itemID string) ([]model.StatusChange, error) {
	cur, err := m.changes.Find(ctx, bson.M{"itemId": itemID},
		options.Find().SetSort(bson.D{{Key: "changedAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("listing status changes: %w", err)
	}
	changes := []model.StatusChange{}
	if err := cur.All(ctx, &changes); err != nil {
		return nil, fmt.Errorf("decoding status changes: %w", err)
	}
	return changes, nil
}

// JWTSecret returns the persisted signing secret, creating it on first use.
func (m *Mongo) JWTSecret(ctx context.Context) (string, error) {
	candidate, err := newSecret()
	if err != nil {
		return "", err
	}

	_, err = m.settings.UpdateOne(ctx,
		bson.M{"_id": "jwt_secret"},
		bson.M{"$setOnInsert": bson.M{"value": candidate}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	var doc struct {
		Value string `bson:"value"`
	}
	if err := m.settings.FindOne(ctx, bson.M{"_id": "jwt_secret"}).Decode(&doc); err != nil {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}
	return doc.Value, nil
}
