package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

const itemColumns = `id, type, description, category, location, image, status,
	user_id, is_anonymous, contact_info, created_at`

// Newest first; rowid breaks ties between items created in the same instant.
const itemOrder = ` ORDER BY created_at DESC, rowid DESC`

// CreateItem inserts item, assigning its ID and creation time when unset.
func (s *SQLite) CreateItem(ctx context.Context, item *model.Item) error {
	if item.ID == "" {
		item.ID = NewID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now()
	}
	if item.Status == "" {
		item.Status = model.ItemStatusPending
	}

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO items (id, type, description, category, location, image, status,
		                    user_id, is_anonymous, contact_info, created_at)
		 VALUES (:id, :type, :description, :category, :location, :image, :status,
		         :user_id, :is_anonymous, :contact_info, :created_at)`, item,
	)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}
	return nil
}

// GetItem returns an item by ID.
func (s *SQLite) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item := &model.Item{}
	err := s.db.GetContext(ctx, item, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// SearchItems returns items matching filter, newest first. The query is a
// case-insensitive substring match on the description.
func (s *SQLite) SearchItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if filter.Query != "" {
		query += ` AND ` + db.FoldFunc + `(description) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Query))+"%")
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}

	query += itemOrder
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	items := []model.Item{}
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	return items, nil
}

// ListItems returns every item, newest first.
func (s *SQLite) ListItems(ctx context.Context) ([]model.Item, error) {
	items := []model.Item{}
	if err := s.db.SelectContext(ctx, &items, `SELECT `+itemColumns+` FROM items`+itemOrder); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// ListItemsByOwner returns the items reported by userID, newest first.
func (s *SQLite) ListItemsByOwner(ctx context.Context, userID string) ([]model.Item, error) {
	items := []model.Item{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT `+itemColumns+` FROM items WHERE user_id = ?`+itemOrder, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items by owner: %w", err)
	}
	return items, nil
}

// CountItems returns the number of stored items.
func (s *SQLite) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM items`); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// UpdateItemStatus overwrites an item's status and records the change.
// Returns nil, nil when the item does not exist.
func (s *SQLite) UpdateItemStatus(ctx context.Context, id, status, changedBy string) (*model.Item, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var previous string
	err = tx.GetContext(ctx, &previous, `SELECT status FROM items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading item status: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE items SET status = ? WHERE id = ?`, status, id); err != nil {
		return nil, fmt.Errorf("updating item status: %w", err)
	}

	change := model.StatusChange{
		ID:         NewID(),
		ItemID:     id,
		FromStatus: previous,
		ToStatus:   status,
		ChangedBy:  changedBy,
		ChangedAt:  now(),
	}
	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO status_changes (id, item_id, from_status, to_status, changed_by, changed_at)
		 VALUES (:id, :item_id, :from_status, :to_status, :changed_by, :changed_at)`, change,
	)
	if err != nil {
		return nil, fmt.Errorf("recording status change: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status update: %w", err)
	}

	return s.GetItem(ctx, id)
}

// escapeLike escapes LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
