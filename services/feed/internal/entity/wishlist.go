package entity

import (
	"fmt"
	"time"
)

// WishlistEntry is a denormalized snapshot of one outfit saved by a viewer.
// A reel's entries are always written and removed as a group.
type WishlistEntry struct {
	ReelID      string   `validate:"required"`
	OutfitIndex int      `validate:"gte=0"`
	SellerID    string
	ReelURL     string
	ProductName string
	Price       float64
	ImageURL    string
	Sizes       []string
	Colors      []string
	Timestamp   time.Time
}

func WishlistKey(reelID string, outfitIndex int) string {
	return fmt.Sprintf("%s_%d", reelID, outfitIndex)
}

func (e WishlistEntry) Key() string {
	return WishlistKey(e.ReelID, e.OutfitIndex)
}

// NewWishlistEntries snapshots every outfit of the reel, in outfit order.
func NewWishlistEntries(reel *Reel) []WishlistEntry {
	reelURL := reel.VideoURL
	if reelURL == "" && reel.Embed != nil {
		reelURL = reel.Embed.Permalink
	}

	entries := make([]WishlistEntry, 0, len(reel.Outfits))
	for i, outfit := range reel.Outfits {
		entries = append(entries, WishlistEntry{
			ReelID:      reel.ID,
			OutfitIndex: i,
			SellerID:    reel.SellerID,
			ReelURL:     reelURL,
			ProductName: outfit.Name,
			Price:       outfit.Price,
			ImageURL:    outfit.CoverImage(),
			Sizes:       append([]string{}, outfit.Sizes...),
			Colors:      append([]string{}, outfit.Colors...),
		})
	}
	return entries
}
