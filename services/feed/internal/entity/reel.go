package entity

import (
	"math"
	"time"
)

// Reel is a feed item. Exactly one of VideoURL and Embed is set.
type Reel struct {
	ID            string
	SellerID      string `validate:"required"`
	SellerName    string
	BrandName     string
	Description   string
	VideoURL      string
	Embed         *EmbedPost
	Category      string
	CreatedAt     time.Time
	Likes         int64 `validate:"gte=0"`
	LikedBy       []string
	CommentsCount int64    `validate:"gte=0"`
	Outfits       []Outfit `validate:"dive"`
}

// Outfit identity is its index within the parent reel.
type Outfit struct {
	Name         string
	MainPrice    float64 `validate:"gte=0"`
	Price        float64 `validate:"gte=0"`
	Sizes        []string
	Colors       []string
	Images       []string
	ImageURL     string
	ProductLink  string
	DeliveryDays int
}

func (r *Reel) IsLikedBy(viewerID string) bool {
	for _, id := range r.LikedBy {
		if id == viewerID {
			return true
		}
	}
	return false
}

func (r *Reel) HasOutfits() bool {
	return len(r.Outfits) > 0
}

// Clone returns a copy that shares no slices with r.
func (r *Reel) Clone() *Reel {
	if r == nil {
		return nil
	}
	c := *r
	c.LikedBy = append([]string(nil), r.LikedBy...)
	if r.Embed != nil {
		embed := *r.Embed
		c.Embed = &embed
	}
	c.Outfits = make([]Outfit, len(r.Outfits))
	for i, o := range r.Outfits {
		o.Sizes = append([]string(nil), o.Sizes...)
		o.Colors = append([]string(nil), o.Colors...)
		o.Images = append([]string(nil), o.Images...)
		c.Outfits[i] = o
	}
	return &c
}

// CoverImage is the first uploaded image, falling back to the legacy
// single-image field.
func (o Outfit) CoverImage() string {
	for _, img := range o.Images {
		if img != "" {
			return img
		}
	}
	return o.ImageURL
}

// DiscountPercent is display-only; ok is false unless both prices are
// positive and the discounted price is below the original.
func (o Outfit) DiscountPercent() (int, bool) {
	if o.MainPrice <= 0 || o.Price <= 0 || o.Price >= o.MainPrice {
		return 0, false
	}
	return int(math.Round((o.MainPrice - o.Price) / o.MainPrice * 100)), true
}
