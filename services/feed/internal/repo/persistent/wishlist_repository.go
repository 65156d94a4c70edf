package persistent

import (
	"context"
	"fmt"

	"reel-feed/pkg/apperr"
	"reel-feed/pkg/docstore"
	"reel-feed/services/feed/internal/entity"
	"reel-feed/services/feed/internal/model"
)

// WishlistRepository exposes wishlist membership per reel. Storage keeps
// one entry per outfit keyed "{reelId}_{outfitIndex}"; callers never see
// those keys. Batches run sequentially, continue past a failing entry and
// never roll back entries that were already written or deleted.
type WishlistRepository interface {
	// AddReel snapshots every outfit of the reel. A failure is a
	// partial-batch error listing the outfit indices that were not written.
	AddReel(ctx context.Context, viewerID string, reel *entity.Reel) error
	// RemoveReel deletes the entries for outfit indices [0, outfitCount).
	RemoveReel(ctx context.Context, viewerID, reelID string, outfitCount int) error
	// ReelIDs is the set of reels with at least one entry.
	ReelIDs(ctx context.Context, viewerID string) (map[string]bool, error)
	Entries(ctx context.Context, viewerID, reelID string) ([]entity.WishlistEntry, error)
}

type wishlistRepository struct {
	store docstore.Store
}

func NewWishlistRepository(store docstore.Store) WishlistRepository {
	return &wishlistRepository{store: store}
}

func (r *wishlistRepository) AddReel(ctx context.Context, viewerID string, reel *entity.Reel) error {
	collection := model.WishlistPath(viewerID)

	var failed []int
	var errs []error
	for _, entry := range entity.NewWishlistEntries(reel) {
		if err := r.store.Set(ctx, collection, entry.Key(), ToWishlistFields(entry), false); err != nil {
			failed = append(failed, entry.OutfitIndex)
			errs = append(errs, fmt.Errorf("outfit %d: %w", entry.OutfitIndex, err))
		}
	}
	return apperr.PartialBatch("Some items could not be added to your wishlist", failed, errs)
}

func (r *wishlistRepository) RemoveReel(ctx context.Context, viewerID, reelID string, outfitCount int) error {
	collection := model.WishlistPath(viewerID)

	var failed []int
	var errs []error
	for i := 0; i < outfitCount; i++ {
		if err := r.store.Delete(ctx, collection, entity.WishlistKey(reelID, i)); err != nil {
			failed = append(failed, i)
			errs = append(errs, fmt.Errorf("outfit %d: %w", i, err))
		}
	}
	return apperr.PartialBatch("Some items could not be removed from your wishlist", failed, errs)
}

func (r *wishlistRepository) ReelIDs(ctx context.Context, viewerID string) (map[string]bool, error) {
	records, err := r.store.GetAll(ctx, model.WishlistPath(viewerID))
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(records))
	for _, rec := range records {
		if reelID := rec.GetString(model.WishlistReelID); reelID != "" {
			ids[reelID] = true
		}
	}
	return ids, nil
}

func (r *wishlistRepository) Entries(ctx context.Context, viewerID, reelID string) ([]entity.WishlistEntry, error) {
	records, err := r.store.Query(ctx, model.WishlistPath(viewerID), model.WishlistReelID, reelID)
	if err != nil {
		return nil, err
	}
	entries := make([]entity.WishlistEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, ToWishlistEntity(rec))
	}
	return entries, nil
}
