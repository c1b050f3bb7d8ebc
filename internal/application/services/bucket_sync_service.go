package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/providers"
	"github.com/zatekoja/apprating/internal/infrastructure/observability"
)

const syncTimeout = 5 * time.Second

// BucketSyncService keeps cached buckets fresh when other instances change them
type BucketSyncService struct {
	reviews  *ReviewService
	eventBus providers.EventBus
	channel  string
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewBucketSyncService creates a new bucket sync service
func NewBucketSyncService(reviews *ReviewService, eventBus providers.EventBus, channel string) *BucketSyncService {
	if channel == "" {
		channel = providers.DefaultReviewChannel
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BucketSyncService{
		reviews:  reviews,
		eventBus: eventBus,
		channel:  channel,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for review events
func (s *BucketSyncService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, s.channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to review events: %w", err)
	}

	s.wg.Add(1)
	go s.processEvents(eventChan)
	observability.GetLogger().Info().Str("channel", s.channel).Msg("bucket sync service started")
	return nil
}

// Stop stops listening and waits for the event loop to exit
func (s *BucketSyncService) Stop() {
	s.cancel()
	s.wg.Wait()
	observability.GetLogger().Info().Msg("bucket sync service stopped")
}

func (s *BucketSyncService) processEvents(eventChan <-chan *entities.ReviewEvent) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.HandleEvent(event)
		}
	}
}

// HandleEvent reloads the bucket named by a foreign event if this instance caches it.
// It reports whether a reload happened.
func (s *BucketSyncService) HandleEvent(event *entities.ReviewEvent) bool {
	if event.Origin == s.reviews.InstanceID() || !s.reviews.IsLoaded(event.Bucket) {
		return false
	}

	ctx, cancel := context.WithTimeout(s.ctx, syncTimeout)
	defer cancel()

	if _, err := s.reviews.LoadReviews(ctx, event.Bucket); err != nil {
		observability.GetLogger().Warn().
			Err(err).
			Str("bucket", event.Bucket.String()).
			Str("event_id", event.ID).
			Msg("failed to reload bucket after review event")
		return false
	}

	observability.GetLogger().Debug().
		Str("bucket", event.Bucket.String()).
		Str("event_type", string(event.Type)).
		Msg("reloaded bucket after review event")
	return true
}
