package usecase

import (
	"time"

	"reel-feed/services/feed/internal/entity"
)

const CategoryAll = "All"

type FeedView struct {
	SessionID    string     `json:"session_id"`
	Viewer       ViewerView `json:"viewer"`
	Category     string     `json:"category"`
	CurrentIndex int        `json:"current_index"`
	Reels        []ReelView `json:"reels"`
}

type ViewerView struct {
	ID      string `json:"id,omitempty"`
	CanSell bool   `json:"can_sell"`
}

type ReelView struct {
	ID            string       `json:"id"`
	SellerID      string       `json:"seller_id"`
	SellerName    string       `json:"seller_name"`
	BrandName     string       `json:"brand_name,omitempty"`
	Description   string       `json:"description,omitempty"`
	Category      string       `json:"category,omitempty"`
	VideoURL      string       `json:"video_url,omitempty"`
	Embed         *EmbedView   `json:"embed,omitempty"`
	Likes         int64        `json:"likes"`
	CommentsCount int64        `json:"comments_count"`
	IsLiked       bool         `json:"is_liked"`
	IsWishlisted  bool         `json:"is_wishlisted"`
	IsPlaying     bool         `json:"is_playing"`
	Unsynced      []string     `json:"unsynced,omitempty"`
	ShareURL      string       `json:"share_url"`
	Outfits       []OutfitView `json:"outfits"`
	CreatedAt     time.Time    `json:"created_at"`
}

type EmbedView struct {
	Shortcode string `json:"shortcode"`
	Permalink string `json:"permalink"`
}

type OutfitView struct {
	Index           int      `json:"index"`
	Name            string   `json:"name"`
	MainPrice       float64  `json:"main_price"`
	Price           float64  `json:"price"`
	DiscountPercent *int     `json:"discount_percent,omitempty"`
	Sizes           []string `json:"sizes"`
	Colors          []string `json:"colors"`
	ImageURL        string   `json:"image_url,omitempty"`
	ProductLink     string   `json:"product_link,omitempty"`
	DeliveryDays    int      `json:"delivery_days,omitempty"`
}

type CommentView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type CommentsView struct {
	ReelID   string        `json:"reel_id"`
	Open     bool          `json:"open"`
	Comments []CommentView `json:"comments"`
}

type PlaybackView struct {
	CurrentIndex int   `json:"current_index"`
	Playing      []int `json:"playing"`
}

type GestureResult struct {
	Dismissed bool `json:"dismissed"`
}

func toOutfitViews(outfits []entity.Outfit) []OutfitView {
	views := make([]OutfitView, 0, len(outfits))
	for i, o := range outfits {
		view := OutfitView{
			Index:        i,
			Name:         o.Name,
			MainPrice:    o.MainPrice,
			Price:        o.Price,
			Sizes:        nonNil(o.Sizes),
			Colors:       nonNil(o.Colors),
			ImageURL:     o.CoverImage(),
			ProductLink:  o.ProductLink,
			DeliveryDays: o.DeliveryDays,
		}
		if pct, ok := o.DiscountPercent(); ok {
			view.DiscountPercent = &pct
		}
		views = append(views, view)
	}
	return views
}

// ToCommentsView converts a stream snapshot for the API.
func ToCommentsView(snapshot CommentSnapshot) *CommentsView {
	view := &CommentsView{
		ReelID:   snapshot.ReelID,
		Open:     snapshot.ReelID != "",
		Comments: make([]CommentView, 0, len(snapshot.Comments)),
	}
	for _, c := range snapshot.Comments {
		view.Comments = append(view.Comments, toCommentView(c))
	}
	return view
}

func toCommentView(c entity.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		UserID:    c.UserID,
		UserName:  c.UserName,
		Text:      c.Text,
		Timestamp: c.Timestamp,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
