package store

import (
	"context"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
)

// ListStatusChanges returns the status history of an item, newest first.
func (s *SQLite) ListStatusChanges(ctx context.Context, itemID string) ([]model.StatusChange, error) {
	changes := []model.StatusChange{}
	err := s.db.SelectContext(ctx, &changes,
		`SELECT id, item_id, from_status, to_status, changed_by, changed_at
		 FROM status_changes
		 WHERE item_id = ?
		 ORDER BY changed_at DESC, rowid DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing status changes: %w", err)
	}
	return changes, nil
}
