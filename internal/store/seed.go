package store

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

var sampleItems = []model.Item{
	{Type: model.ItemTypeLost, Description: "Blue backpack with laptop inside", Category: "Accessories",
		Location: "University Library, 2nd floor", Status: model.ItemStatusPending, ContactInfo: "john@example.com"},
	{Type: model.ItemTypeFound, Description: "iPhone 13 Pro with red case", Category: "Electronics",
		Location: "Student Center Cafeteria", Status: model.ItemStatusPending, ContactInfo: "security@campus.edu"},
	{Type: model.ItemTypeLost, Description: "Car keys with a rabbit keychain", Category: "Keys",
		Location: "Parking Lot B", Status: model.ItemStatusPending, ContactInfo: "alice@example.com"},
	{Type: model.ItemTypeFound, Description: "Black wallet with student ID", Category: "Wallets",
		Location: "Gym locker room", Status: model.ItemStatusMatched, ContactInfo: "gym@campus.edu"},
	{Type: model.ItemTypeLost, Description: "Prescription glasses with black frame", Category: "Accessories",
		Location: "Science Building, Room 302", Status: model.ItemStatusPending, ContactInfo: "bob@example.com"},
	{Type: model.ItemTypeFound, Description: "Textbook: Introduction to Computer Science", Category: "Books",
		Location: "Computer Lab", Status: model.ItemStatusPending, ContactInfo: "lab@campus.edu"},
}

// SeedSampleItems inserts a fixed set of anonymous demo items when the store
// holds no items yet. Returns the number of inserted items.
func SeedSampleItems(ctx context.Context, s Store) (int, error) {
	count, err := s.CountItems(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	base := now()
	for i, sample := range sampleItems {
		item := sample
		item.Image = model.PlaceholderImageURL
		item.UserID = model.AnonymousUserID
		item.IsAnonymous = true
		item.CreatedAt = base.Add(-time.Duration(i+1) * 24 * time.Hour)
		if err := s.CreateItem(ctx, &item); err != nil {
			return i, fmt.Errorf("seeding sample items: %w", err)
		}
	}
	return len(sampleItems), nil
}
