package model

import "time"

// Item is a lost or found object report.
type Item struct {
	ID          string    `json:"id" db:"id" bson:"_id"`
	Type        string    `json:"type" db:"type" bson:"type"`
	Description string    `json:"description" db:"description" bson:"description"`
	Category    string    `json:"category" db:"category" bson:"category"`
	Location    string    `json:"location" db:"location" bson:"location"`
	Image       string    `json:"image" db:"image" bson:"image"`
	Status      string    `json:"status" db:"status" bson:"status"`
	UserID      string    `json:"userId" db:"user_id" bson:"userId"`
	IsAnonymous bool      `json:"isAnonymous" db:"is_anonymous" bson:"isAnonymous"`
	ContactInfo string    `json:"contactInfo" db:"contact_info" bson:"contactInfo"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
}

// Item types.
const (
	ItemTypeLost  = "lost"
	ItemTypeFound = "found"
)

// Item statuses.
const (
	ItemStatusPending = "pending"
	ItemStatusMatched = "matched"
	ItemStatusClaimed = "claimed"
)

// AnonymousUserID owns every item reported without a valid token.
const AnonymousUserID = "000000000000000000000000"

// PlaceholderImageURL is returned by the image upload stub.
const PlaceholderImageURL = "https://via.placeholder.com/150"

// Search sentinels meaning "no filter".
const (
	AllTypes      = "all"
	AllCategories = "All Categories"
)

// DefaultSearchLimit caps search results when the caller gives no limit.
const DefaultSearchLimit = 20

// Categories offered by the report form.
var Categories = []string{
	"Electronics",
	"Books",
	"Clothing",
	"Accessories",
	"Documents",
	"Keys",
	"Wallets",
	"Other",
}

// Locations offered by the report form.
var Locations = []string{
	"Main Campus",
	"Science Block",
	"Library",
	"Cafeteria",
	"Hostel A",
	"Hostel B",
	"Sports Complex",
	"Admin Block",
	"Other",
}

// ValidItemType reports whether t is lost or found.
func ValidItemType(t string) bool {
	return t == ItemTypeLost || t == ItemTypeFound
}

// ValidItemStatus reports whether s is one of the lifecycle statuses.
func ValidItemStatus(s string) bool {
	switch s {
	case ItemStatusPending, ItemStatusMatched, ItemStatusClaimed:
		return true
	}
	return false
}

// ItemFilter is a normalized search query. Empty fields do not filter.
type ItemFilter struct {
	Query    string
	Type     string
	Category string
	Limit    int
}

// StatusChange records one admin status update.
type StatusChange struct {
	ID         string    `json:"id" db:"id" bson:"_id"`
	ItemID     string    `json:"itemId" db:"item_id" bson:"itemId"`
	FromStatus string    `json:"fromStatus" db:"from_status" bson:"fromStatus"`
	ToStatus   string    `json:"toStatus" db:"to_status" bson:"toStatus"`
	ChangedBy  string    `json:"changedBy,omitempty" db:"changed_by" bson:"changedBy"`
	ChangedAt  time.Time `json:"changedAt" db:"changed_at" bson:"changedAt"`
}
