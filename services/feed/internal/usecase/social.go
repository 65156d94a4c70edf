package usecase

import (
	"context"
	"sort"
	"sync"

	"reel-feed/pkg/apperr"
	"reel-feed/pkg/logger"
	"reel-feed/pkg/metrics"
	"reel-feed/pkg/queue"
	"reel-feed/services/feed/internal/entity"
	"reel-feed/services/feed/internal/repo/persistent"
)

// SyncOp names an optimistic write that can leave a reel unsynced.
type SyncOp string

const (
	SyncLike     SyncOp = "like"
	SyncWishlist SyncOp = "wishlist"
)

type unsyncedKey struct {
	reelID string
	op     SyncOp
}

// SocialSynchronizer owns one session's local view of reels and its like and
// wishlist caches. Every toggle stages the new state under the lock,
// performs the remote write without it, then commits on success. A failed
// write leaves the local state untouched and marks the reel unsynced until
// a later write of the same kind succeeds or the feed is reloaded.
type SocialSynchronizer struct {
	mu         sync.Mutex
	reels      map[string]*entity.Reel
	liked      map[string]bool
	wishlisted map[string]bool
	unsynced   map[unsyncedKey]bool

	reelRepo     persistent.ReelRepository
	wishlistRepo persistent.WishlistRepository
	events       EventPublisher
	logger       *logger.Logger
}

func NewSocialSynchronizer(reelRepo persistent.ReelRepository, wishlistRepo persistent.WishlistRepository, events EventPublisher, log *logger.Logger) *SocialSynchronizer {
	return &SocialSynchronizer{
		reels:        make(map[string]*entity.Reel),
		liked:        make(map[string]bool),
		wishlisted:   make(map[string]bool),
		unsynced:     make(map[unsyncedKey]bool),
		reelRepo:     reelRepo,
		wishlistRepo: wishlistRepo,
		events:       events,
		logger:       log,
	}
}

// Seed replaces all local state with freshly loaded reels. Liked flags come
// from each reel's liker set, wishlist flags from the viewer's entries.
func (s *SocialSynchronizer) Seed(viewerID string, reels []*entity.Reel, wishlisted map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reels = make(map[string]*entity.Reel, len(reels))
	s.liked = make(map[string]bool)
	s.wishlisted = make(map[string]bool)
	s.unsynced = make(map[unsyncedKey]bool)

	for _, reel := range reels {
		s.reels[reel.ID] = reel.Clone()
		if viewerID != "" && reel.IsLikedBy(viewerID) {
			s.liked[reel.ID] = true
		}
		if wishlisted[reel.ID] {
			s.wishlisted[reel.ID] = true
		}
	}
}

// ToggleLike flips the viewer's like on a reel and returns whether the reel
// is now liked.
func (s *SocialSynchronizer) ToggleLike(ctx context.Context, reelID, viewerID string) (bool, error) {
	if viewerID == "" {
		return false, apperr.ErrNotAuthenticated
	}

	s.mu.Lock()
	reel, ok := s.reels[reelID]
	if !ok {
		s.mu.Unlock()
		return false, apperr.NotFound("Reel not found")
	}
	wasLiked := reel.IsLikedBy(viewerID)
	likedBy, likes := nextLikeState(reel.LikedBy, reel.Likes, viewerID, wasLiked)
	sellerID := reel.SellerID
	s.mu.Unlock()

	err := s.reelRepo.SetLikes(ctx, reelID, likedBy, likes)
	metrics.ObserveWrite(string(SyncLike), err)

	s.mu.Lock()
	if err != nil {
		s.markUnsyncedLocked(reelID, SyncLike)
		liked := s.liked[reelID]
		s.mu.Unlock()
		s.logger.Error("Failed to update like on reel %s for %s: %v", reelID, viewerID, err)
		return liked, apperr.RemoteWrite(err, "Could not update like. Try again.")
	}
	if current, ok := s.reels[reelID]; ok {
		current.LikedBy = likedBy
		current.Likes = likes
	}
	s.liked[reelID] = !wasLiked
	delete(s.unsynced, unsyncedKey{reelID, SyncLike})
	s.mu.Unlock()

	if !wasLiked {
		notifySeller(s.events, s.logger, queue.InteractionEvent{
			Type:     queue.EventLike,
			SellerID: sellerID,
			ActorID:  viewerID,
			ReelID:   reelID,
			Priority: 3,
		})
	}
	return !wasLiked, nil
}

// nextLikeState removes or adds the viewer and moves the counter by one,
// never below zero even if the stored counter was already inconsistent.
func nextLikeState(likedBy []string, likes int64, viewerID string, wasLiked bool) ([]string, int64) {
	next := make([]string, 0, len(likedBy)+1)
	if wasLiked {
		for _, id := range likedBy {
			if id != viewerID {
				next = append(next, id)
			}
		}
		if likes-1 < 0 {
			return next, 0
		}
		return next, likes - 1
	}
	next = append(next, likedBy...)
	next = append(next, viewerID)
	return next, likes + 1
}

// ToggleWishlist adds or removes every outfit of the reel as one logical
// batch and returns whether the reel is now wishlisted. Membership only
// changes when the whole batch succeeds.
func (s *SocialSynchronizer) ToggleWishlist(ctx context.Context, reelID, viewerID string) (bool, error) {
	if viewerID == "" {
		return false, apperr.ErrNotAuthenticated
	}

	s.mu.Lock()
	reel, ok := s.reels[reelID]
	if !ok {
		s.mu.Unlock()
		return false, apperr.NotFound("Reel not found")
	}
	if !reel.HasOutfits() {
		s.mu.Unlock()
		return false, apperr.Validation("No product found in this reel.")
	}
	wasWishlisted := s.wishlisted[reelID]
	snapshot := reel.Clone()
	s.mu.Unlock()

	var err error
	if wasWishlisted {
		err = s.wishlistRepo.RemoveReel(ctx, viewerID, reelID, len(snapshot.Outfits))
	} else {
		err = s.wishlistRepo.AddReel(ctx, viewerID, snapshot)
	}
	metrics.ObserveWrite(string(SyncWishlist), err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.markUnsyncedLocked(reelID, SyncWishlist)
		s.logger.Error("Wishlist update on reel %s for %s failed: %v", reelID, viewerID, err)
		if apperr.KindOf(err) == apperr.KindPartialBatch {
			return wasWishlisted, err
		}
		return wasWishlisted, apperr.RemoteWrite(err, "Could not update wishlist. Try again.")
	}
	if wasWishlisted {
		delete(s.wishlisted, reelID)
	} else {
		s.wishlisted[reelID] = true
	}
	delete(s.unsynced, unsyncedKey{reelID, SyncWishlist})
	return !wasWishlisted, nil
}

func (s *SocialSynchronizer) markUnsyncedLocked(reelID string, op SyncOp) {
	s.unsynced[unsyncedKey{reelID, op}] = true
	metrics.UnsyncedMarks.WithLabelValues(string(op)).Inc()
}

// Reel returns a copy of the local record.
func (s *SocialSynchronizer) Reel(reelID string) (*entity.Reel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reel, ok := s.reels[reelID]
	if !ok {
		return nil, false
	}
	return reel.Clone(), true
}

// ReelState is the local social view of one reel.
type ReelState struct {
	Reel         *entity.Reel
	IsLiked      bool
	IsWishlisted bool
	Unsynced     []SyncOp
}

func (s *SocialSynchronizer) State(reelID string) (ReelState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reel, ok := s.reels[reelID]
	if !ok {
		return ReelState{}, false
	}
	state := ReelState{
		Reel:         reel.Clone(),
		IsLiked:      s.liked[reelID],
		IsWishlisted: s.wishlisted[reelID],
	}
	for key := range s.unsynced {
		if key.reelID == reelID {
			state.Unsynced = append(state.Unsynced, key.op)
		}
	}
	sort.Slice(state.Unsynced, func(i, j int) bool { return state.Unsynced[i] < state.Unsynced[j] })
	return state, true
}

// IncrementCommentCount mirrors a successful counter write locally.
func (s *SocialSynchronizer) IncrementCommentCount(reelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reel, ok := s.reels[reelID]; ok {
		reel.CommentsCount++
	}
}
