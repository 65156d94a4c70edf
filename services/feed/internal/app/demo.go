package internal

import (
	"context"
	"fmt"
	"time"

	"reel-feed/pkg/docstore"
	"reel-feed/pkg/logger"
	"reel-feed/pkg/models"
	"reel-feed/services/feed/internal/entity"
	"reel-feed/services/feed/internal/model"
	"reel-feed/services/feed/internal/repo/persistent"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type demoSeller struct {
	id       string
	name     string
	email    string
	verified bool
}

var demoSellers = []demoSeller{
	{"seller-meera", "Meera Handlooms", "meera@demo.reel", true},
	{"seller-kabir", "Kabir Street", "kabir@demo.reel", false},
	{"seller-tinytots", "Tiny Tots Co", "tots@demo.reel", true},
}

var demoViewers = []struct {
	id    string
	name  string
	email string
}{
	{"viewer-asha", "Asha", "asha@demo.reel"},
	{"viewer-ravi", "Ravi", "ravi@demo.reel"},
}

// DemoReels returns the demo catalogue. Video locators use the configured
// bucket so a local MinIO can serve them.
func DemoReels(bucket string) []*entity.Reel {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	video := func(name string) string {
		return fmt.Sprintf("s3://%s/reels/%s.mp4", bucket, name)
	}

	return []*entity.Reel{
		{
			ID: "demo-kurta-set", SellerID: "seller-meera", BrandName: "Meera",
			Description: "Festive kurta set in hand block print",
			VideoURL:    video("kurta-set"), Category: "Women's Wear", CreatedAt: base,
			Outfits: []entity.Outfit{
				{Name: "Block print kurta", MainPrice: 2499, Price: 1899, Sizes: []string{"S", "M", "L"}, Colors: []string{"Indigo"}, Images: []string{"https://cdn.demo.reel/kurta.jpg"}, DeliveryDays: 4},
				{Name: "Cotton dupatta", MainPrice: 699, Price: 499, Colors: []string{"Ivory"}, ImageURL: "https://cdn.demo.reel/dupatta.jpg", DeliveryDays: 4},
			},
		},
		{
			ID: "demo-linen-shirt", SellerID: "seller-kabir", BrandName: "Kabir Street",
			Description: "Relaxed linen shirt for summer",
			VideoURL:    video("linen-shirt"), Category: "Men's Wear", CreatedAt: base.Add(time.Hour),
			Outfits: []entity.Outfit{
				{Name: "Linen shirt", MainPrice: 1799, Price: 1799, Sizes: []string{"M", "L", "XL"}, Colors: []string{"Sand", "Olive"}, ProductLink: "https://kabirstreet.example/linen", DeliveryDays: 3},
			},
		},
		{
			ID: "demo-party-frock", SellerID: "seller-tinytots", BrandName: "Tiny Tots",
			Description: "Tulle party frock",
			Embed:       &entity.EmbedPost{Shortcode: "CzTots_0001", Permalink: entity.InstagramPermalink("CzTots_0001")},
			Category:    "Kids Wear", CreatedAt: base.Add(2 * time.Hour),
			Outfits: []entity.Outfit{
				{Name: "Party frock", MainPrice: 1299, Price: 999, Sizes: []string{"2-3Y", "4-5Y"}, Colors: []string{"Blush"}},
			},
		},
		{
			ID: "demo-saree-drape", SellerID: "seller-meera", BrandName: "Meera",
			Description: "Three ways to drape a silk saree",
			VideoURL:    video("saree-drape"), Category: "Women's Wear", CreatedAt: base.Add(3 * time.Hour),
			Likes: 2, LikedBy: []string{"viewer-ravi", "seller-kabir"},
		},
		{
			ID: "demo-denim-jacket", SellerID: "seller-kabir", BrandName: "Kabir Street",
			Description: "Washed denim jacket styling",
			Embed:       &entity.EmbedPost{Shortcode: "CzKabir_002", Permalink: entity.InstagramPermalink("CzKabir_002")},
			Category:    "Men's Wear", CreatedAt: base.Add(4 * time.Hour),
			Outfits: []entity.Outfit{
				{Name: "Denim jacket", MainPrice: 3299, Price: 2599, Sizes: []string{"M", "L"}, Colors: []string{"Blue"}, Images: []string{"https://cdn.demo.reel/denim.jpg"}},
				{Name: "White tee", MainPrice: 599, Price: 499, Sizes: []string{"M", "L"}},
				{Name: "Chinos", MainPrice: 1499, Price: 1199, Sizes: []string{"32", "34"}},
			},
		},
		{
			ID: "demo-school-shoes", SellerID: "seller-tinytots", BrandName: "Tiny Tots",
			Description: "Back to school picks",
			VideoURL:    video("school-shoes"), Category: "Kids Wear", CreatedAt: base.Add(5 * time.Hour),
			Likes: 1, LikedBy: []string{"viewer-asha"},
			Outfits: []entity.Outfit{
				{Name: "Velcro sneakers", MainPrice: 999, Price: 849, Sizes: []string{"10C", "11C", "12C"}},
			},
		},
		{
			ID: "demo-bandhgala", SellerID: "seller-meera", BrandName: "Meera",
			Description: "Bandhgala for the groom's brother",
			VideoURL:    video("bandhgala"), Category: "Ethnic Fusion", CreatedAt: base.Add(6 * time.Hour),
			Outfits: []entity.Outfit{
				{Name: "Bandhgala", MainPrice: 5999, Price: 4999, Sizes: []string{"40", "42"}, Colors: []string{"Maroon"}},
			},
		},
	}
}

// SeedDemo writes the demo sellers, viewers and reels. Existing documents
// with the same ids are overwritten, so it can be rerun.
func SeedDemo(ctx context.Context, store docstore.Store, bucket string, log *logger.Logger) error {
	for _, s := range demoSellers {
		if err := store.Set(ctx, model.CollectionUsers, s.id, map[string]interface{}{
			model.UserName:  s.name,
			model.UserEmail: s.email,
			model.UserRole:  string(entity.RoleSeller),
		}, true); err != nil {
			return fmt.Errorf("failed to write seller user %s: %w", s.id, err)
		}
		if err := store.Set(ctx, model.CollectionSellerDetails, s.id, map[string]interface{}{
			model.SellerDisplayName: s.name,
			model.SellerIsVerified:  s.verified,
		}, true); err != nil {
			return fmt.Errorf("failed to write seller details %s: %w", s.id, err)
		}
	}

	for _, v := range demoViewers {
		if err := store.Set(ctx, model.CollectionUsers, v.id, map[string]interface{}{
			model.UserName:  v.name,
			model.UserEmail: v.email,
			model.UserRole:  string(entity.RoleViewer),
		}, true); err != nil {
			return fmt.Errorf("failed to write user %s: %w", v.id, err)
		}
	}

	reels := persistent.NewReelRepository(store)
	for _, reel := range DemoReels(bucket) {
		if _, err := reels.Create(ctx, reel); err != nil {
			return fmt.Errorf("failed to write reel %s: %w", reel.ID, err)
		}
	}

	log.Info("Seeded %d sellers, %d viewers and %d reels", len(demoSellers), len(demoViewers), len(DemoReels(bucket)))
	return nil
}

// SeedDemoProfiles upserts the demo accounts into the profiles table.
func SeedDemoProfiles(ctx context.Context, db *gorm.DB, log *logger.Logger) error {
	profiles := make([]models.Profile, 0, len(demoSellers)+len(demoViewers))
	for _, s := range demoSellers {
		profiles = append(profiles, models.Profile{ID: s.id, Email: s.email, DisplayName: s.name, Role: models.ProfileRoleSeller, IsVerified: s.verified})
	}
	for _, v := range demoViewers {
		profiles = append(profiles, models.Profile{ID: v.id, Email: v.email, DisplayName: v.name, Role: models.ProfileRoleViewer})
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "display_name", "role", "is_verified", "updated_at"}),
	}).Create(&profiles).Error
	if err != nil {
		return fmt.Errorf("failed to upsert profiles: %w", err)
	}

	log.Info("Seeded %d profiles", len(profiles))
	return nil
}
