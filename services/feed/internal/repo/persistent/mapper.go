package persistent

import (
	"reel-feed/pkg/docstore"
	"reel-feed/pkg/models"
	"reel-feed/services/feed/internal/entity"
	"reel-feed/services/feed/internal/model"
)

func ToReelEntity(rec docstore.Record) *entity.Reel {
	reel := &entity.Reel{
		ID:            rec.ID,
		SellerID:      rec.GetString(model.ReelSellerID),
		BrandName:     rec.GetString(model.ReelBrandName),
		Description:   rec.GetString(model.ReelDescription),
		VideoURL:      rec.GetString(model.ReelURL),
		Category:      rec.GetString(model.ReelCategory),
		CreatedAt:     rec.GetTime(model.ReelCreatedAt),
		Likes:         rec.GetInt(model.ReelLikes),
		LikedBy:       rec.GetStrings(model.ReelLikedBy),
		CommentsCount: rec.GetInt(model.ReelCommentsCount),
	}

	if cfg := rec.GetMap(model.ReelEmbedConfig); cfg != nil {
		embedRec := docstore.Record{Fields: cfg}
		// Older uploads stored only the url; re-derive the shortcode from it.
		source := embedRec.GetString(model.EmbedShortcode)
		if source == "" {
			source = embedRec.GetString(model.EmbedURL)
		}
		if embed, ok := entity.ParseInstagram(source); ok {
			reel.Embed = embed
		}
	}

	for _, raw := range rec.GetMaps(model.ReelOutfits) {
		reel.Outfits = append(reel.Outfits, toOutfitEntity(docstore.Record{Fields: raw}))
	}
	return reel
}

func toOutfitEntity(rec docstore.Record) entity.Outfit {
	outfit := entity.Outfit{
		Name:         rec.GetString(model.OutfitName),
		MainPrice:    rec.GetFloat(model.OutfitMainPrice),
		Price:        rec.GetFloat(model.OutfitPrice),
		Sizes:        rec.GetStrings(model.OutfitSizes),
		Colors:       rec.GetStrings(model.OutfitColors),
		ImageURL:     rec.GetString(model.OutfitImageURL),
		ProductLink:  rec.GetString(model.OutfitProductLink),
		DeliveryDays: int(rec.GetInt(model.OutfitDeliveryDays)),
	}
	// Images are stored as {url, index} maps, already sorted by index on upload.
	for _, img := range rec.GetMaps(model.OutfitImages) {
		if url := (docstore.Record{Fields: img}).GetString(model.ImageURL); url != "" {
			outfit.Images = append(outfit.Images, url)
		}
	}
	return outfit
}

// ToReelFields builds a new reel document. Counters start from the entity's values.
func ToReelFields(reel *entity.Reel) map[string]interface{} {
	uploadType := model.UploadTypeVideo
	var embed interface{}
	if reel.Embed != nil {
		uploadType = model.UploadTypeEmbedded
		embed = map[string]interface{}{
			model.EmbedShortcode: reel.Embed.Shortcode,
			model.EmbedURL:       reel.Embed.Permalink,
		}
	}
	var videoURL interface{}
	if reel.VideoURL != "" {
		videoURL = reel.VideoURL
	}

	outfits := make([]interface{}, 0, len(reel.Outfits))
	for _, o := range reel.Outfits {
		images := make([]interface{}, 0, len(o.Images))
		for i, url := range o.Images {
			images = append(images, map[string]interface{}{model.ImageURL: url, model.ImageIndex: int64(i)})
		}
		outfits = append(outfits, map[string]interface{}{
			model.OutfitName:         o.Name,
			model.OutfitMainPrice:    o.MainPrice,
			model.OutfitPrice:        o.Price,
			model.OutfitSizes:        stringsToInterfaces(o.Sizes),
			model.OutfitColors:       stringsToInterfaces(o.Colors),
			model.OutfitImages:       images,
			model.OutfitImageURL:     o.ImageURL,
			model.OutfitProductLink:  o.ProductLink,
			model.OutfitDeliveryDays: int64(o.DeliveryDays),
		})
	}

	fields := map[string]interface{}{
		model.ReelSellerID:      reel.SellerID,
		model.ReelBrandName:     reel.BrandName,
		model.ReelDescription:   reel.Description,
		model.ReelURL:           videoURL,
		model.ReelEmbedConfig:   embed,
		model.ReelUploadType:    uploadType,
		model.ReelCategory:      reel.Category,
		model.ReelLikes:         reel.Likes,
		model.ReelLikedBy:       stringsToInterfaces(reel.LikedBy),
		model.ReelCommentsCount: reel.CommentsCount,
		model.ReelOutfits:       outfits,
	}
	if reel.CreatedAt.IsZero() {
		fields[model.ReelCreatedAt] = docstore.ServerTimestamp
	} else {
		fields[model.ReelCreatedAt] = reel.CreatedAt
	}
	return fields
}

func ToCommentEntity(reelID string, rec docstore.Record) entity.Comment {
	return entity.Comment{
		ID:        rec.ID,
		ReelID:    reelID,
		UserID:    rec.GetString(model.CommentUserID),
		UserName:  rec.GetString(model.CommentUserName),
		Text:      rec.GetString(model.CommentText),
		Timestamp: rec.GetTime(model.CommentTimestamp),
	}
}

func ToCommentFields(c *entity.Comment) map[string]interface{} {
	return map[string]interface{}{
		model.CommentUserID:    c.UserID,
		model.CommentUserName:  c.UserName,
		model.CommentText:      c.Text,
		model.CommentTimestamp: docstore.ServerTimestamp,
	}
}

func ToWishlistFields(e entity.WishlistEntry) map[string]interface{} {
	return map[string]interface{}{
		model.WishlistReelID:      e.ReelID,
		model.WishlistOutfitIndex: int64(e.OutfitIndex),
		model.WishlistSellerID:    e.SellerID,
		model.WishlistReelURL:     e.ReelURL,
		model.WishlistProductName: e.ProductName,
		model.WishlistPrice:       e.Price,
		model.WishlistImageURL:    e.ImageURL,
		model.WishlistSizes:       stringsToInterfaces(e.Sizes),
		model.WishlistColors:      stringsToInterfaces(e.Colors),
		model.WishlistTimestamp:   docstore.ServerTimestamp,
	}
}

func ToWishlistEntity(rec docstore.Record) entity.WishlistEntry {
	return entity.WishlistEntry{
		ReelID:      rec.GetString(model.WishlistReelID),
		OutfitIndex: int(rec.GetInt(model.WishlistOutfitIndex)),
		SellerID:    rec.GetString(model.WishlistSellerID),
		ReelURL:     rec.GetString(model.WishlistReelURL),
		ProductName: rec.GetString(model.WishlistProductName),
		Price:       rec.GetFloat(model.WishlistPrice),
		ImageURL:    rec.GetString(model.WishlistImageURL),
		Sizes:       rec.GetStrings(model.WishlistSizes),
		Colors:      rec.GetStrings(model.WishlistColors),
		Timestamp:   rec.GetTime(model.WishlistTimestamp),
	}
}

// ToProfileEntity merges the users record and the optional sellerDetails
// record. Either may be nil.
func ToProfileEntity(userID string, user, seller *docstore.Record) *entity.Profile {
	profile := &entity.Profile{UserID: userID, Role: entity.RoleViewer}
	if user != nil {
		profile.DisplayName = user.GetString(model.UserName)
		profile.Verified = user.GetBool(model.UserIsVerified)
		if user.GetString(model.UserRole) == string(entity.RoleSeller) {
			profile.Role = entity.RoleSeller
		}
	}
	if seller != nil {
		if name := seller.GetString(model.SellerDisplayName); name != "" {
			profile.DisplayName = name
		}
		profile.Verified = profile.Verified || seller.GetBool(model.SellerIsVerified)
	}
	return profile
}

func ProfileModelToEntity(m *models.Profile) *entity.Profile {
	if m == nil {
		return nil
	}
	role := entity.RoleViewer
	if m.Role == models.ProfileRoleSeller {
		role = entity.RoleSeller
	}
	return &entity.Profile{
		UserID:      m.ID,
		DisplayName: m.DisplayName,
		Role:        role,
		Verified:    m.IsVerified,
	}
}

func stringsToInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
