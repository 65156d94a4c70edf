package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstagram(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
		ok    bool
	}{
		{"bare shortcode", "Cx1_ab-DEFg", "Cx1_ab-DEFg", true},
		{"post url", "https://www.instagram.com/p/ABC123/", "ABC123", true},
		{"reel url", "https://instagram.com/reel/Zz9_xY/?igsh=abc", "Zz9_xY", true},
		{"tv url with spaces", "  https://www.instagram.com/tv/TV42/  ", "TV42", true},
		{"short bare code", "ABC123", "", false},
		{"profile url", "https://www.instagram.com/someone/", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed, ok := ParseInstagram(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				require.NotNil(t, embed)
				assert.Equal(t, tt.code, embed.Shortcode)
				assert.Equal(t, "https://www.instagram.com/p/"+tt.code+"/", embed.Permalink)
			} else {
				assert.Nil(t, embed)
			}
		})
	}
}

func TestOutfit_DiscountPercent(t *testing.T) {
	pct, ok := Outfit{MainPrice: 2000, Price: 1499}.DiscountPercent()
	assert.True(t, ok)
	assert.Equal(t, 25, pct)

	_, ok = Outfit{MainPrice: 0, Price: 100}.DiscountPercent()
	assert.False(t, ok)

	_, ok = Outfit{MainPrice: 100, Price: 100}.DiscountPercent()
	assert.False(t, ok)
}

func TestOutfit_CoverImage(t *testing.T) {
	assert.Equal(t, "a.jpg", Outfit{Images: []string{"", "a.jpg"}, ImageURL: "legacy.jpg"}.CoverImage())
	assert.Equal(t, "legacy.jpg", Outfit{ImageURL: "legacy.jpg"}.CoverImage())
	assert.Equal(t, "", Outfit{}.CoverImage())
}

func TestNewWishlistEntries(t *testing.T) {
	reel := &Reel{
		ID:       "reel1",
		SellerID: "seller1",
		Embed:    &EmbedPost{Shortcode: "ABC", Permalink: InstagramPermalink("ABC")},
		Outfits: []Outfit{
			{Name: "Kurta", Price: 999, Images: []string{"k.jpg"}, Sizes: []string{"M"}},
			{Name: "Dupatta", Price: 299, ImageURL: "d.jpg"},
		},
	}

	entries := NewWishlistEntries(reel)
	require.Len(t, entries, 2)
	assert.Equal(t, "reel1_0", entries[0].Key())
	assert.Equal(t, "reel1_1", entries[1].Key())
	assert.Equal(t, "k.jpg", entries[0].ImageURL)
	assert.Equal(t, "d.jpg", entries[1].ImageURL)
	assert.Equal(t, "https://www.instagram.com/p/ABC/", entries[0].ReelURL)
	assert.Equal(t, []string{}, entries[1].Sizes)
}

func TestReel_Clone(t *testing.T) {
	reel := &Reel{ID: "r", LikedBy: []string{"a"}, Outfits: []Outfit{{Sizes: []string{"S"}}}}
	c := reel.Clone()
	c.LikedBy[0] = "b"
	c.Outfits[0].Sizes[0] = "XL"
	assert.Equal(t, "a", reel.LikedBy[0])
	assert.Equal(t, "S", reel.Outfits[0].Sizes[0])
	assert.True(t, reel.IsLikedBy("a"))
	assert.False(t, reel.IsLikedBy("b"))
}

func TestValidate_ReelMedia(t *testing.T) {
	base := Reel{ID: "r", SellerID: "s"}

	video := base
	video.VideoURL = "https://cdn/x.mp4"
	assert.NoError(t, Validate(&video))

	embed := base
	embed.Embed = &EmbedPost{Shortcode: "ABC"}
	assert.NoError(t, Validate(&embed))

	both := video
	both.Embed = &EmbedPost{Shortcode: "ABC"}
	err := Validate(&both)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")

	neither := base
	assert.Error(t, Validate(&neither))
}

func TestValidate_RequiredFields(t *testing.T) {
	err := Validate(&Reel{VideoURL: "x", Likes: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Reel.ID is required")
	assert.Contains(t, err.Error(), "Reel.Likes must be at least 0")
}

func TestProfile_CanSell(t *testing.T) {
	assert.True(t, (&Profile{Role: RoleSeller}).CanSell())
	assert.False(t, (&Profile{Role: RoleViewer}).CanSell())
	var p *Profile
	assert.False(t, p.CanSell())
}
