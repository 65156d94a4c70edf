package usecase

import (
	"context"
	"encoding/json"
	"math/rand/v2"

	"reel-feed/pkg/logger"
	"reel-feed/pkg/metrics"
	"reel-feed/services/feed/internal/repo/session"
)

const orderKeyName = "reelsOrder"

// SessionStore is string-keyed storage scoped to one browsing session.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// SessionContext identifies the session whose order is being established
// and where that order is kept.
type SessionContext struct {
	ID    string
	Store SessionStore
}

type OrderingService interface {
	// EstablishOrder returns the session's viewing order over allReelIDs.
	// A non-empty pinnedID that is present is rotated to the front; the
	// rotation is never stored.
	EstablishOrder(ctx context.Context, sc SessionContext, allReelIDs []string, pinnedID string) ([]string, error)
}

type orderingService struct {
	intN   func(n int) int
	logger *logger.Logger
}

// NewOrderingService shuffles with intN, which must return a uniform value
// in [0, n). A nil intN uses math/rand/v2.
func NewOrderingService(intN func(n int) int, log *logger.Logger) OrderingService {
	if intN == nil {
		intN = rand.IntN
	}
	return &orderingService{intN: intN, logger: log}
}

func (s *orderingService) EstablishOrder(ctx context.Context, sc SessionContext, allReelIDs []string, pinnedID string) ([]string, error) {
	key := session.Key(sc.ID, orderKeyName)

	order, restored := s.restore(ctx, sc.Store, key, allReelIDs)
	if restored {
		metrics.FeedLoads.WithLabelValues("restored").Inc()
	} else {
		order = append([]string(nil), allReelIDs...)
		s.shuffle(order)
		s.persist(ctx, sc.Store, key, order)
		metrics.FeedLoads.WithLabelValues("shuffled").Inc()
	}

	return rotateToFront(order, pinnedID), nil
}

// restore reads the stored order and drops ids no longer in the collection.
// Reels added after the order was stored are not appended.
func (s *orderingService) restore(ctx context.Context, store SessionStore, key string, allReelIDs []string) ([]string, bool) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Failed to read stored feed order %s: %v", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var saved []string
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.logger.Warn("Discarding unreadable feed order %s: %v", key, err)
		return nil, false
	}

	present := make(map[string]bool, len(allReelIDs))
	for _, id := range allReelIDs {
		present[id] = true
	}
	order := make([]string, 0, len(saved))
	for _, id := range saved {
		if present[id] {
			order = append(order, id)
			// A duplicated id in a hand-edited value would otherwise repeat.
			present[id] = false
		}
	}
	return order, true
}

func (s *orderingService) persist(ctx context.Context, store SessionStore, key string, order []string) {
	raw, err := json.Marshal(order)
	if err != nil {
		s.logger.Error("Failed to encode feed order: %v", err)
		return
	}
	if err := store.Set(ctx, key, string(raw)); err != nil {
		s.logger.Error("Failed to store feed order %s: %v", key, err)
	}
}

// shuffle is Fisher-Yates: walk down from the last index, swapping each
// element with a uniformly chosen one at or below it.
func (s *orderingService) shuffle(ids []string) {
	for i := len(ids) - 1; i > 0; i-- {
		j := s.intN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

func rotateToFront(order []string, pinnedID string) []string {
	if pinnedID == "" {
		return order
	}
	for i, id := range order {
		if id != pinnedID {
			continue
		}
		if i == 0 {
			return order
		}
		rotated := make([]string, 0, len(order))
		rotated = append(rotated, order[i:]...)
		return append(rotated, order[:i]...)
	}
	return order
}
