package usecase

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"reel-feed/pkg/apperr"
	"reel-feed/pkg/metrics"
	"reel-feed/services/feed/internal/entity"
)

// Session is one viewer's engine instance: the feed order, local social
// caches, the open comment stream and playback state.
type Session struct {
	ID       string
	ViewerID string

	deps      Dependencies
	roleClaim entity.Role
	ctx       context.Context
	cancel    context.CancelFunc

	social   *SocialSynchronizer
	comments *CommentStreamManager
	playback *PlaybackCoordinator

	loadMu sync.Mutex

	mu        sync.Mutex
	loaded    bool
	pinnedID  string
	order     []string
	category  string
	visible   []string
	sellers   map[string]string
	canSell   bool
	lastSeen  time.Time
}

func newSession(id, viewerID string, role entity.Role, deps Dependencies) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        id,
		ViewerID:  viewerID,
		deps:      deps,
		roleClaim: role,
		ctx:       ctx,
		cancel:    cancel,
		playback:  NewPlaybackCoordinator(),
		sellers:   make(map[string]string),
		lastSeen:  deps.now(),
	}
	s.social = NewSocialSynchronizer(deps.Reels, deps.Wishlist, deps.Events, deps.Logger)
	s.comments = NewCommentStreamManager(deps.Comments, deps.Reels, deps.Profiles, deps.Events, s.sellerOf, deps.Logger)
	return s
}

// Load reads every reel, establishes the session order with pinnedID first
// and reseeds the local caches. Unsynced marks are cleared.
func (s *Session) Load(ctx context.Context, pinnedID string) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := time.Now()
	defer func() { metrics.LoadDuration.Observe(time.Since(start).Seconds()) }()

	reels, err := s.deps.Reels.List(ctx)
	if err != nil {
		s.deps.Logger.Error("Failed to load reels for session %s: %v", s.ID, err)
		return apperr.Internal(err, "Could not load reels. Try again.")
	}

	ids := make([]string, 0, len(reels))
	for _, reel := range reels {
		ids = append(ids, reel.ID)
	}
	order, err := s.deps.Ordering.EstablishOrder(ctx, SessionContext{ID: s.ID, Store: s.deps.SessionStore}, ids, pinnedID)
	if err != nil {
		return apperr.Internal(err, "Could not load reels. Try again.")
	}

	sellers := s.resolveSellers(ctx, reels)
	wishlisted := s.loadWishlist(ctx)
	canSell := s.resolveCanSell(ctx)

	s.social.Seed(s.ViewerID, reels, wishlisted)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.pinnedID = pinnedID
	s.order = order
	s.sellers = sellers
	s.canSell = canSell
	s.applyCategoryLocked(s.category)

	s.deps.Logger.Info("Session %s loaded %d reels", s.ID, len(order))
	return nil
}

func (s *Session) resolveSellers(ctx context.Context, reels []*entity.Reel) map[string]string {
	names := make(map[string]string)
	for _, reel := range reels {
		if _, done := names[reel.SellerID]; done {
			continue
		}
		name := entity.UnknownSellerName
		profile, err := s.deps.Profiles.GetProfile(ctx, reel.SellerID)
		if err == nil && strings.TrimSpace(profile.DisplayName) != "" {
			name = profile.DisplayName
		}
		names[reel.SellerID] = name
	}
	return names
}

// mediaURL resolves a reel's locator on every view. Presigned links are
// not kept on the session.
func (s *Session) mediaURL(reel *entity.Reel) string {
	if reel.VideoURL == "" || s.deps.Media == nil {
		return reel.VideoURL
	}
	u, err := s.deps.Media.ResolveURL(reel.VideoURL)
	if err != nil {
		s.deps.Logger.Warn("Failed to resolve media for reel %s: %v", reel.ID, err)
		return reel.VideoURL
	}
	return u
}

func (s *Session) loadWishlist(ctx context.Context) map[string]bool {
	if s.ViewerID == "" {
		return nil
	}
	ids, err := s.deps.Wishlist.ReelIDs(ctx, s.ViewerID)
	if err != nil {
		s.deps.Logger.Warn("Failed to load wishlist for %s: %v", s.ViewerID, err)
		return nil
	}
	return ids
}

// resolveCanSell prefers the directory's role and falls back to the token
// claim when the viewer has no profile.
func (s *Session) resolveCanSell(ctx context.Context) bool {
	if s.ViewerID == "" {
		return false
	}
	profile, err := s.deps.Profiles.GetProfile(ctx, s.ViewerID)
	if err != nil {
		return s.roleClaim == entity.RoleSeller
	}
	return profile.CanSell()
}

func (s *Session) applyCategoryLocked(category string) {
	if strings.EqualFold(category, CategoryAll) {
		category = ""
	}
	s.category = category
	s.visible = s.visible[:0]
	for _, id := range s.order {
		if category == "" {
			s.visible = append(s.visible, id)
			continue
		}
		reel, ok := s.social.Reel(id)
		if ok && strings.EqualFold(reel.Category, category) {
			s.visible = append(s.visible, id)
		}
	}
	s.playback.Reset(len(s.visible))
}

// SetCategory filters the visible reels. Changing it restarts playback at
// the first visible reel.
func (s *Session) SetCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	normalized := category
	if strings.EqualFold(normalized, CategoryAll) {
		normalized = ""
	}
	if strings.EqualFold(normalized, s.category) {
		return
	}
	s.applyCategoryLocked(normalized)
}

func (s *Session) Loaded() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded, s.pinnedID
}

// View returns the visible reels in session order.
func (s *Session) View() *FeedView {
	s.mu.Lock()
	visible := append([]string(nil), s.visible...)
	category := s.category
	canSell := s.canSell
	s.mu.Unlock()

	if category == "" {
		category = CategoryAll
	}
	view := &FeedView{
		SessionID:    s.ID,
		Viewer:       ViewerView{ID: s.ViewerID, CanSell: canSell},
		Category:     category,
		CurrentIndex: s.playback.Current(),
		Reels:        make([]ReelView, 0, len(visible)),
	}
	for i, id := range visible {
		if rv, ok := s.reelView(id, i); ok {
			view.Reels = append(view.Reels, *rv)
		}
	}
	return view
}

func (s *Session) reelView(reelID string, index int) (*ReelView, bool) {
	state, ok := s.social.State(reelID)
	if !ok {
		return nil, false
	}
	reel := state.Reel

	s.mu.Lock()
	sellerName := s.sellers[reel.SellerID]
	s.mu.Unlock()
	if sellerName == "" {
		sellerName = entity.UnknownSellerName
	}

	view := &ReelView{
		ID:            reel.ID,
		SellerID:      reel.SellerID,
		SellerName:    sellerName,
		BrandName:     reel.BrandName,
		Description:   reel.Description,
		Category:      reel.Category,
		VideoURL:      s.mediaURL(reel),
		Likes:         reel.Likes,
		CommentsCount: reel.CommentsCount,
		IsLiked:       state.IsLiked,
		IsWishlisted:  state.IsWishlisted,
		IsPlaying:     index >= 0 && s.playback.IsPlaying(index),
		ShareURL:      s.shareURL(reel.ID),
		Outfits:       toOutfitViews(reel.Outfits),
		CreatedAt:     reel.CreatedAt,
	}
	if reel.Embed != nil {
		view.Embed = &EmbedView{Shortcode: reel.Embed.Shortcode, Permalink: reel.Embed.Permalink}
	}
	for _, op := range state.Unsynced {
		view.Unsynced = append(view.Unsynced, string(op))
	}
	return view, true
}

// ReelView is the current view of one reel, with its position in the
// visible list when it has one.
func (s *Session) ReelView(reelID string) (*ReelView, bool) {
	return s.reelView(reelID, s.visibleIndex(reelID))
}

func (s *Session) visibleIndex(reelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range s.visible {
		if id == reelID {
			return i
		}
	}
	return -1
}

// ReelAt maps a visible index to a reel id.
func (s *Session) ReelAt(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.visible) {
		return "", apperr.Validation("Reel index out of range")
	}
	return s.visible[index], nil
}

func (s *Session) shareURL(reelID string) string {
	return strings.TrimRight(s.deps.PublicBaseURL, "/") + "/reels/" + url.PathEscape(reelID)
}

func (s *Session) sellerOf(reelID string) string {
	reel, ok := s.social.Reel(reelID)
	if !ok {
		return ""
	}
	return reel.SellerID
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.deps.now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// close tears down the comment stream and ends the session's lifetime.
func (s *Session) close() {
	s.comments.Close()
	s.cancel()
}
