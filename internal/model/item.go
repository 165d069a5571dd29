package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item rarity tiers, in ascending order of scarcity.
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// Item is a scarce, NFT-like marketplace item.
//
// Ownership state machine:
//   - OwnerID == nil  → the item is unowned and listed for sale; ListedAt is set.
//   - OwnerID != nil  → the item belongs to a user; ListedAt is nil.
//
// The two are mutually exclusive — an item is never both owned and listed.
// Both transitions (purchase: nil→owner, gift: owner→owner) happen only
// through conditional UPDATEs in the storage layer, never through
// read-modify-write.
type Item struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"imageUrl"`
	CollectionID string          `json:"collectionId,omitempty"`
	Price        decimal.Decimal `json:"priceTon"`
	Rarity       string          `json:"rarity"`
	Views        int64           `json:"views"`
	Likes        int64           `json:"likes"`
	OwnerID      *int64          `json:"ownerId,omitempty"`
	ListedAt     *time.Time      `json:"listedAt,omitempty"`
}

// Listed reports whether the item is currently available for purchase.
func (i *Item) Listed() bool {
	return i.OwnerID == nil
}
