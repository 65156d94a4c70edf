package usecase

import (
	"context"
	"time"

	"reel-feed/pkg/logger"
	"reel-feed/pkg/queue"
)

// EventPublisher delivers seller notifications. *queue.Client implements it.
type EventPublisher interface {
	PublishInteraction(ctx context.Context, event queue.InteractionEvent) error
}

const publishTimeout = 5 * time.Second

// notifySeller publishes in the background; a failure is only logged.
// Viewers acting on their own reels are not reported.
func notifySeller(publisher EventPublisher, log *logger.Logger, event queue.InteractionEvent) {
	if publisher == nil || event.SellerID == "" || event.SellerID == event.ActorID {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := publisher.PublishInteraction(ctx, event); err != nil {
			log.Error("[NOTIFICATION QUEUE] Failed to publish %s event for reel %s: %v", event.Type, event.ReelID, err)
		}
	}()
}
