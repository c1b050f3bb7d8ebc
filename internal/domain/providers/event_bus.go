package providers

import (
	"context"

	"github.com/zatekoja/apprating/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to review events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ReviewEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ReviewEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// DefaultReviewChannel carries every bucket mutation.
const DefaultReviewChannel = "reviews:updates"
