// Package model names the document store collections and field keys the
// feed reads and writes.
package model

import "reel-feed/pkg/docstore"

const (
	CollectionReels         = "reels"
	CollectionComments      = "comments"
	CollectionUsers         = "users"
	CollectionWishlist      = "wishlist"
	CollectionSellerDetails = "sellerDetails"
)

// Reel document.
const (
	ReelSellerID      = "sellerId"
	ReelBrandName     = "brandName"
	ReelDescription   = "description"
	ReelURL           = "reelUrl"
	ReelEmbedConfig   = "instagramEmbedConfig"
	ReelUploadType    = "uploadType"
	ReelCategory      = "category"
	ReelCreatedAt     = "createdAt"
	ReelLikes         = "likes"
	ReelLikedBy       = "likedBy"
	ReelCommentsCount = "commentsCount"
	ReelOutfits       = "outfits"
)

// Embedded post descriptor, nested under ReelEmbedConfig.
const (
	EmbedShortcode = "shortcode"
	EmbedURL       = "url"
)

// Outfit map, an element of ReelOutfits.
const (
	OutfitName         = "name"
	OutfitMainPrice    = "mainPrice"
	OutfitPrice        = "price"
	OutfitSizes        = "sizes"
	OutfitColors       = "colors"
	OutfitImages       = "images"
	OutfitImageURL     = "imageUrl"
	OutfitProductLink  = "productLink"
	OutfitDeliveryDays = "deliveryDays"
	ImageURL           = "url"
	ImageIndex         = "index"
)

// Comment document.
const (
	CommentUserID    = "userId"
	CommentUserName  = "userName"
	CommentText      = "text"
	CommentTimestamp = "timestamp"
)

// Wishlist entry document.
const (
	WishlistReelID      = "reelId"
	WishlistOutfitIndex = "outfitIndex"
	WishlistSellerID    = "sellerId"
	WishlistReelURL     = "reelUrl"
	WishlistProductName = "productName"
	WishlistPrice       = "price"
	WishlistImageURL    = "imageUrl"
	WishlistSizes       = "sizes"
	WishlistColors      = "colors"
	WishlistTimestamp   = "timestamp"
)

// Profile fields spread over users/{uid} and sellerDetails/{uid}.
const (
	UserRole           = "role"
	UserName           = "name"
	UserEmail          = "email"
	UserIsVerified     = "isVerified"
	SellerDisplayName  = "displayName"
	SellerIsVerified   = "isVerified"
	UploadTypeVideo    = "video"
	UploadTypeEmbedded = "instagram"
)

func CommentsPath(reelID string) string {
	return docstore.Path(CollectionReels, reelID, CollectionComments)
}

func WishlistPath(viewerID string) string {
	return docstore.Path(CollectionUsers, viewerID, CollectionWishlist)
}
