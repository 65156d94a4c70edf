package persistent

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"reel-feed/pkg/apperr"
	"reel-feed/pkg/docstore"
	"reel-feed/services/feed/internal/entity"
	"reel-feed/services/feed/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func twoOutfitReel() *entity.Reel {
	return &entity.Reel{
		ID:       "reel1",
		SellerID: "seller1",
		VideoURL: "s3://media/reels/reel1.mp4",
		Category: "Women's Wear",
		Likes:    3,
		LikedBy:  []string{"a", "b", "c"},
		Outfits: []entity.Outfit{
			{Name: "Kurta", MainPrice: 1999, Price: 1499, Sizes: []string{"S", "M"}, Images: []string{"k0.jpg", "k1.jpg"}},
			{Name: "Dupatta", MainPrice: 499, Price: 299, ImageURL: "legacy.jpg"},
		},
	}
}

func TestReelRepository_CreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewReelRepository(store)

	id, err := repo.Create(ctx, twoOutfitReel())
	require.NoError(t, err)
	assert.Equal(t, "reel1", id)

	reel, err := repo.Get(ctx, "reel1")
	require.NoError(t, err)
	assert.Equal(t, "seller1", reel.SellerID)
	assert.Equal(t, int64(3), reel.Likes)
	assert.Equal(t, []string{"a", "b", "c"}, reel.LikedBy)
	require.Len(t, reel.Outfits, 2)
	assert.Equal(t, []string{"k0.jpg", "k1.jpg"}, reel.Outfits[0].Images)
	assert.Equal(t, 1499.0, reel.Outfits[0].Price)
	assert.Equal(t, "legacy.jpg", reel.Outfits[1].ImageURL)
	assert.False(t, reel.CreatedAt.IsZero())

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrReelNotFound)
}

func TestReelRepository_CreateRejectsInvalidMedia(t *testing.T) {
	repo := NewReelRepository(docstore.NewMemoryStore())
	reel := twoOutfitReel()
	reel.Embed = &entity.EmbedPost{Shortcode: "ABC"}

	_, err := repo.Create(context.Background(), reel)
	assert.Error(t, err)
}

func TestReelRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewReelRepository(store)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"r0", "r1", "r2"} {
		reel := twoOutfitReel()
		reel.ID = id
		reel.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		_, err := repo.Create(ctx, reel)
		require.NoError(t, err)
	}

	reels, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, reels, 3)
	assert.Equal(t, "r2", reels[0].ID)
	assert.Equal(t, "r0", reels[2].ID)
}

func TestReelRepository_EmbeddedReelFromLegacyURL(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, model.CollectionReels, "ig", map[string]interface{}{
		model.ReelSellerID:    "s",
		model.ReelEmbedConfig: map[string]interface{}{model.EmbedURL: "https://www.instagram.com/reel/XYZ_12/"},
	}, false))

	reel, err := NewReelRepository(store).Get(ctx, "ig")
	require.NoError(t, err)
	require.NotNil(t, reel.Embed)
	assert.Equal(t, "XYZ_12", reel.Embed.Shortcode)
	assert.Equal(t, "https://www.instagram.com/p/XYZ_12/", reel.Embed.Permalink)
}

func TestReelRepository_SetLikesAndIncrementComments(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewReelRepository(store)
	_, err := repo.Create(ctx, twoOutfitReel())
	require.NoError(t, err)

	require.NoError(t, repo.SetLikes(ctx, "reel1", []string{"a", "b", "c", "u"}, 4))
	require.NoError(t, repo.IncrementComments(ctx, "reel1"))
	require.NoError(t, repo.IncrementComments(ctx, "reel1"))

	reel, err := repo.Get(ctx, "reel1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), reel.Likes)
	assert.Equal(t, []string{"a", "b", "c", "u"}, reel.LikedBy)
	assert.Equal(t, int64(2), reel.CommentsCount)
}

func TestWishlistRepository_AddRemove(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewWishlistRepository(store)
	reel := twoOutfitReel()

	require.NoError(t, repo.AddReel(ctx, "viewer", reel))

	_, err := store.GetByID(ctx, model.WishlistPath("viewer"), "reel1_0")
	require.NoError(t, err)
	rec, err := store.GetByID(ctx, model.WishlistPath("viewer"), "reel1_1")
	require.NoError(t, err)
	assert.Equal(t, "legacy.jpg", rec.GetString(model.WishlistImageURL))

	ids, err := repo.ReelIDs(ctx, "viewer")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"reel1": true}, ids)

	entries, err := repo.Entries(ctx, "viewer", "reel1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, repo.RemoveReel(ctx, "viewer", "reel1", len(reel.Outfits)))
	entries, err = repo.Entries(ctx, "viewer", "reel1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWishlistRepository_PartialFailureContinues(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewWishlistRepository(store)
	reel := twoOutfitReel()
	reel.Outfits = append(reel.Outfits, entity.Outfit{Name: "Jutti"})

	store.SetFaultHook(func(op docstore.Op, collection, id string) error {
		if op == docstore.OpSet && id == "reel1_1" {
			return errors.New("unavailable")
		}
		return nil
	})

	err := repo.AddReel(ctx, "viewer", reel)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPartialBatch, apperr.KindOf(err))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []int{1}, appErr.Failed)

	entries, err := repo.Entries(ctx, "viewer", "reel1")
	require.NoError(t, err)
	assert.Len(t, entries, 2, "siblings before and after the failure are written")
}

func TestCommentRepository_SubscribeNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	repo := NewCommentRepository(store)

	var latest []entity.Comment
	sub, err := repo.Subscribe(ctx, "reel1", func(comments []entity.Comment) {
		latest = comments
	})
	require.NoError(t, err)
	defer sub.Stop()

	for _, text := range []string{"first", "second", "third"} {
		_, err := repo.Create(ctx, &entity.Comment{ReelID: "reel1", UserID: "u", UserName: "U", Text: text})
		require.NoError(t, err)
	}

	require.Len(t, latest, 3)
	assert.Equal(t, "third", latest[0].Text)
	assert.Equal(t, "first", latest[2].Text)
	assert.Equal(t, "reel1", latest[0].ReelID)
	for i := 1; i < len(latest); i++ {
		assert.False(t, latest[i].Timestamp.After(latest[i-1].Timestamp))
	}
}

func TestStoreProfileRepository(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, model.CollectionUsers, "seller1", map[string]interface{}{
		model.UserRole: "seller", model.UserEmail: "s@example.com",
	}, false))
	require.NoError(t, store.Set(ctx, model.CollectionSellerDetails, "seller1", map[string]interface{}{
		model.SellerDisplayName: "Meera Boutique", model.SellerIsVerified: true,
	}, false))
	require.NoError(t, store.Set(ctx, model.CollectionUsers, "viewer1", map[string]interface{}{
		model.UserName: "Ravi",
	}, false))
	repo := NewStoreProfileRepository(store)

	seller, err := repo.GetProfile(ctx, "seller1")
	require.NoError(t, err)
	assert.Equal(t, "Meera Boutique", seller.DisplayName)
	assert.True(t, seller.CanSell())
	assert.True(t, seller.Verified)

	viewer, err := repo.GetProfile(ctx, "viewer1")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", viewer.DisplayName)
	assert.False(t, viewer.CanSell())

	_, err = repo.GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestPostgresProfileRepository_GetProfile(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewPostgresProfileRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "display_name", "role", "is_verified"}).
		AddRow("seller1", "s@example.com", "Meera Boutique", "seller", true)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles"`)).WillReturnRows(rows)

	profile, err := repo.GetProfile(context.Background(), "seller1")
	require.NoError(t, err)
	assert.Equal(t, "Meera Boutique", profile.DisplayName)
	assert.Equal(t, entity.RoleSeller, profile.Role)
	assert.True(t, profile.Verified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileRepository_NotFound(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewPostgresProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles"`)).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
