package usecase

import (
	"context"
	"sync"
	"time"

	"reel-feed/pkg/docstore"
	"reel-feed/pkg/queue"
	"reel-feed/services/feed/internal/entity"
	"reel-feed/services/feed/internal/repo/persistent"

	"github.com/stretchr/testify/mock"
)

type MockEventPublisher struct {
	mock.Mock
	mu     sync.Mutex
	events []queue.InteractionEvent
}

func (m *MockEventPublisher) PublishInteraction(ctx context.Context, event queue.InteractionEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) Published() []queue.InteractionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]queue.InteractionEvent(nil), m.events...)
}

// steppingClock advances one second per call so server timestamps are
// strictly increasing.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func testReel(id, sellerID string, likedBy []string, outfits int) *entity.Reel {
	reel := &entity.Reel{
		ID:       id,
		SellerID: sellerID,
		VideoURL: "https://cdn.example.com/" + id + ".mp4",
		Category: "Women's Wear",
		Likes:    int64(len(likedBy)),
		LikedBy:  likedBy,
	}
	for i := 0; i < outfits; i++ {
		reel.Outfits = append(reel.Outfits, entity.Outfit{
			Name:      "Outfit",
			MainPrice: 1000,
			Price:     800,
			Images:    []string{"https://cdn.example.com/" + id + ".jpg"},
		})
	}
	return reel
}

func seedReels(ctx context.Context, store docstore.Store, reels ...*entity.Reel) error {
	repo := persistent.NewReelRepository(store)
	for _, reel := range reels {
		if _, err := repo.Create(ctx, reel); err != nil {
			return err
		}
	}
	return nil
}
