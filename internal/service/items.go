package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// ItemService queries, reports and triages items.
type ItemService struct {
	store  store.Store
	logger *slog.Logger
}

// NewItemService returns an ItemService backed by s.
func NewItemService(s store.Store, logger *slog.Logger) *ItemService {
	return &ItemService{store: s, logger: logger}
}

// SearchParams are the raw search inputs as received from a caller.
type SearchParams struct {
	Query    string
	Type     string
	Category string
	Limit    string
}

// Filter normalizes the raw inputs: the "all" and "All Categories"
// sentinels disable their filter, and a missing, unparsable or non-positive
// limit becomes the default.
func (p SearchParams) Filter() model.ItemFilter {
	f := model.ItemFilter{
		Query:    strings.TrimSpace(p.Query),
		Type:     strings.TrimSpace(p.Type),
		Category: strings.TrimSpace(p.Category),
		Limit:    model.DefaultSearchLimit,
	}
	if f.Type == model.AllTypes {
		f.Type = ""
	}
	if f.Category == model.AllCategories {
		f.Category = ""
	}
	if n, err := strconv.Atoi(strings.TrimSpace(p.Limit)); err == nil && n > 0 {
		f.Limit = n
	}
	return f
}

// Search returns items matching params, newest first.
func (s *ItemService) Search(ctx context.Context, params SearchParams) ([]model.Item, error) {
	return s.store.SearchItems(ctx, params.Filter())
}

// ListAll returns every item, newest first.
func (s *ItemService) ListAll(ctx context.Context) ([]model.Item, error) {
	return s.store.ListItems(ctx)
}

// ListByOwner returns the items reported by userID. An empty userID lists
// every item.
func (s *ItemService) ListByOwner(ctx context.Context, userID string) ([]model.Item, error) {
	if userID == "" {
		return s.store.ListItems(ctx)
	}
	return s.store.ListItemsByOwner(ctx, userID)
}

// ReportInput holds the fields of a new item report.
type ReportInput struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Image       string `json:"image"`
	ContactInfo string `json:"contactInfo"`
}

// Report creates a pending item. An empty ownerID files it anonymously.
func (s *ItemService) Report(ctx context.Context, in ReportInput, ownerID string) (*model.Item, error) {
	item := &model.Item{
		Type:        strings.TrimSpace(in.Type),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Location:    strings.TrimSpace(in.Location),
		Image:       strings.TrimSpace(in.Image),
		ContactInfo: strings.TrimSpace(in.ContactInfo),
		Status:      model.ItemStatusPending,
		UserID:      ownerID,
	}
	if item.Type == "" || item.Description == "" || item.Category == "" || item.Location == "" {
		return nil, validationError("Please provide all required fields")
	}
	if !model.ValidItemType(item.Type) {
		return nil, validationError(`Type must be either "lost" or "found"`)
	}
	if ownerID == "" {
		item.UserID = model.AnonymousUserID
		item.IsAnonymous = true
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("item reported", "item_id", item.ID, "type", item.Type, "anonymous", item.IsAnonymous)
	return item, nil
}

// UpdateStatus overwrites an item's status. actorID identifies the caller in
// the status history and may be empty.
func (s *ItemService) UpdateStatus(ctx context.Context, itemID, status, actorID string) (*model.Item, error) {
	itemID = strings.TrimSpace(itemID)
	status = strings.TrimSpace(status)
	if itemID == "" || status == "" {
		return nil, validationError("Please provide itemId and status")
	}
	if !model.ValidItemStatus(status) {
		return nil, validationError("Status must be one of: pending, matched, claimed")
	}

	item, err := s.store.UpdateItemStatus(ctx, itemID, status, actorID)
	if errors.Is(err, store.ErrHistoryNotRecorded) && item != nil {
		s.logger.Error("status history gap", "item_id", item.ID, "status", status, "error", err)
		err = nil
	}
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFoundError("Item not found")
	}

	s.logger.Info("item status updated", "item_id", item.ID, "status", item.Status, "by", actorID)
	return item, nil
}

// History returns the status changes of an item, newest first.
func (s *ItemService) History(ctx context.Context, itemID string) ([]model.StatusChange, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFoundError("Item not found")
	}
	return s.store.ListStatusChanges(ctx, itemID)
}
