package persistent

import (
	"context"
	"errors"
	"fmt"

	"reel-feed/pkg/docstore"
	"reel-feed/services/feed/internal/entity"
	"reel-feed/services/feed/internal/model"
)

var ErrReelNotFound = errors.New("reel not found")

type ReelRepository interface {
	// List returns every reel, newest first.
	List(ctx context.Context) ([]*entity.Reel, error)
	Get(ctx context.Context, reelID string) (*entity.Reel, error)
	Create(ctx context.Context, reel *entity.Reel) (string, error)
	// SetLikes writes the liker set and counter together in one update.
	SetLikes(ctx context.Context, reelID string, likedBy []string, likes int64) error
	IncrementComments(ctx context.Context, reelID string) error
}

type reelRepository struct {
	store docstore.Store
}

func NewReelRepository(store docstore.Store) ReelRepository {
	return &reelRepository{store: store}
}

func (r *reelRepository) List(ctx context.Context) ([]*entity.Reel, error) {
	records, err := r.store.GetAll(ctx, model.CollectionReels, docstore.OrderBy{Field: model.ReelCreatedAt, Direction: docstore.Desc})
	if err != nil {
		return nil, err
	}
	reels := make([]*entity.Reel, 0, len(records))
	for _, rec := range records {
		reels = append(reels, ToReelEntity(rec))
	}
	return reels, nil
}

func (r *reelRepository) Get(ctx context.Context, reelID string) (*entity.Reel, error) {
	rec, err := r.store.GetByID(ctx, model.CollectionReels, reelID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrReelNotFound
		}
		return nil, err
	}
	return ToReelEntity(*rec), nil
}

func (r *reelRepository) Create(ctx context.Context, reel *entity.Reel) (string, error) {
	if err := entity.Validate(reel); err != nil {
		return "", fmt.Errorf("invalid reel: %w", err)
	}
	fields := ToReelFields(reel)
	if reel.ID != "" {
		if err := r.store.Set(ctx, model.CollectionReels, reel.ID, fields, false); err != nil {
			return "", err
		}
		return reel.ID, nil
	}
	return r.store.Create(ctx, model.CollectionReels, fields)
}

func (r *reelRepository) SetLikes(ctx context.Context, reelID string, likedBy []string, likes int64) error {
	return r.store.Update(ctx, model.CollectionReels, reelID, map[string]interface{}{
		model.ReelLikedBy: stringsToInterfaces(likedBy),
		model.ReelLikes:   likes,
	})
}

func (r *reelRepository) IncrementComments(ctx context.Context, reelID string) error {
	return r.store.IncrementField(ctx, model.CollectionReels, reelID, model.ReelCommentsCount, 1)
}
