package events

import (
	"context"
	"sync"

	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/providers"
)

// MemoryEventBus delivers events to subscribers inside one process
type MemoryEventBus struct {
	mu          sync.Mutex
	subscribers map[string]map[chan *entities.ReviewEvent]struct{}
	closed      bool
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{subscribers: make(map[string]map[chan *entities.ReviewEvent]struct{})}
}

// Publish delivers event to every current subscriber of channel without blocking
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.ReviewEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel that receives events until ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ReviewEvent, error) {
	eventChan := make(chan *entities.ReviewEvent, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(eventChan)
		return eventChan, nil
	}
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.ReviewEvent]struct{})
	}
	b.subscribers[channel][eventChan] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subscribers[channel][eventChan]; ok {
			delete(b.subscribers[channel], eventChan)
			close(eventChan)
		}
	}()

	return eventChan, nil
}

// Close closes every subscription
func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}
	b.closed = true
	return nil
}
