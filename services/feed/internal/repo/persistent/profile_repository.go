package persistent

import (
	"context"
	"errors"

	"reel-feed/pkg/docstore"
	"reel-feed/pkg/models"
	"reel-feed/services/feed/internal/entity"
	"reel-feed/services/feed/internal/model"

	"gorm.io/gorm"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository reads the profile directory: display names and the role claim.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*entity.Profile, error)
}

type storeProfileRepository struct {
	store docstore.Store
}

// NewStoreProfileRepository reads users/{uid} and sellerDetails/{uid} from
// the document store.
func NewStoreProfileRepository(store docstore.Store) ProfileRepository {
	return &storeProfileRepository{store: store}
}

func (r *storeProfileRepository) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	if userID == "" {
		return nil, ErrProfileNotFound
	}

	user, err := r.store.GetByID(ctx, model.CollectionUsers, userID)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}
	seller, err := r.store.GetByID(ctx, model.CollectionSellerDetails, userID)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}
	if user == nil && seller == nil {
		return nil, ErrProfileNotFound
	}
	return ToProfileEntity(userID, user, seller), nil
}

type postgresProfileRepository struct {
	db *gorm.DB
}

// NewPostgresProfileRepository reads the profiles table.
func NewPostgresProfileRepository(db *gorm.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

func (r *postgresProfileRepository) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return ProfileModelToEntity(&profile), nil
}
