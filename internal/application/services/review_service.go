package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/providers"
	"github.com/zatekoja/apprating/internal/domain/rating"
	"github.com/zatekoja/apprating/internal/domain/repositories"
	"github.com/zatekoja/apprating/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

type bucketState struct {
	reviews []*entities.Review
	stats   entities.RatingStats
}

// ReviewService aggregates reviews per bucket and keeps a cached copy of each loaded
// bucket and its stats.
//
// Every mutation is an atomic read-modify-write of the stored bucket, serialised per
// bucket inside the process. When the write fails the cached bucket is still updated
// and the STORAGE error is returned with the result.
type ReviewService struct {
	repo       repositories.ReviewRepository
	eventBus   providers.EventBus
	channel    string
	instanceID string
	metrics    *observability.Metrics
	now        func() time.Time
	newID      func() string

	locks   *keyLocks
	mu      sync.RWMutex
	buckets map[entities.BucketKey]*bucketState
	index   map[string]entities.BucketKey
}

// ReviewOption configures a ReviewService
type ReviewOption func(*ReviewService)

// WithReviewClock replaces time.Now
func WithReviewClock(now func() time.Time) ReviewOption {
	return func(s *ReviewService) { s.now = now }
}

// WithReviewIDGenerator replaces rating.GenerateReviewID
func WithReviewIDGenerator(newID func() string) ReviewOption {
	return func(s *ReviewService) { s.newID = newID }
}

// WithReviewMetrics records mutations and storage failures
func WithReviewMetrics(m *observability.Metrics) ReviewOption {
	return func(s *ReviewService) { s.metrics = m }
}

// WithEventBus publishes a ReviewEvent on channel after every persisted mutation
func WithEventBus(bus providers.EventBus, channel string) ReviewOption {
	return func(s *ReviewService) {
		s.eventBus = bus
		s.channel = channel
	}
}

// NewReviewService creates a new review service
func NewReviewService(repo repositories.ReviewRepository, opts ...ReviewOption) *ReviewService {
	s := &ReviewService{
		repo:       repo,
		channel:    providers.DefaultReviewChannel,
		instanceID: uuid.NewString(),
		now:        time.Now,
		newID:      rating.GenerateReviewID,
		locks:      newKeyLocks(),
		buckets:    make(map[entities.BucketKey]*bucketState),
		index:      make(map[string]entities.BucketKey),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InstanceID identifies this service in published events
func (s *ReviewService) InstanceID() string {
	return s.instanceID
}

func validateBucket(key entities.BucketKey) error {
	if !key.Valid() {
		return apperrors.NewValidationError("target type and target id are required")
	}
	return nil
}

// LoadReviews reads the bucket from storage and replaces the cached copy. An absent
// bucket loads as empty without error. A corrupt bucket loads as empty with the
// CORRUPT error; an unreadable one keeps any cached copy and returns STORAGE.
func (s *ReviewService) LoadReviews(ctx context.Context, key entities.BucketKey) ([]*entities.Review, error) {
	if err := validateBucket(key); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(key.String())
	defer unlock()

	err := s.loadLocked(ctx, key)
	return s.GetReviews(key), err
}

func (s *ReviewService) loadLocked(ctx context.Context, key entities.BucketKey) error {
	reviews, err := s.repo.LoadBucket(ctx, key)
	switch {
	case err == nil:
	case apperrors.IsNotFound(err):
		reviews, err = nil, nil
	default:
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("bucket", key.String()).
			Msg("failed to load reviews")
		observability.RecordStorageFailure(ctx, s.metrics, "reviews.load")
		if apperrors.IsType(err, apperrors.ErrorTypeStorage) && s.IsLoaded(key) {
			return err
		}
		reviews = nil
	}

	s.setBucket(key, reviews)
	return err
}

func (s *ReviewService) ensureLoaded(ctx context.Context, key entities.BucketKey) {
	if s.IsLoaded(key) {
		return
	}
	_ = s.loadLocked(ctx, key)
}

// IsLoaded reports whether the bucket is cached
func (s *ReviewService) IsLoaded(key entities.BucketKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.buckets[key]
	return ok
}

// setBucket replaces the cached bucket, recomputes its stats and re-indexes its ids.
func (s *ReviewService) setBucket(key entities.BucketKey, reviews []*entities.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.buckets[key]; ok {
		for _, r := range prev.reviews {
			if s.index[r.ID] == key {
				delete(s.index, r.ID)
			}
		}
	}

	cached := make([]*entities.Review, 0, len(reviews))
	for _, r := range reviews {
		if r == nil {
			continue
		}
		cached = append(cached, r)
		s.index[r.ID] = key
	}
	s.buckets[key] = &bucketState{reviews: cached, stats: rating.CalculateStats(cached)}
}

func (s *ReviewService) cachedReviews(key entities.BucketKey) []*entities.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.buckets[key]; ok {
		return slices.Clone(b.reviews)
	}
	return nil
}

func (s *ReviewService) locate(reviewID string) (entities.BucketKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.index[reviewID]
	return key, ok
}

// GetReviews returns copies of the cached reviews of a bucket in stored order
func (s *ReviewService) GetReviews(key entities.BucketKey) []*entities.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[key]
	if !ok {
		return []*entities.Review{}
	}
	out := make([]*entities.Review, len(b.reviews))
	for i, r := range b.reviews {
		out[i] = r.Clone()
	}
	return out
}

// GetStats returns the cached stats of a bucket, zero for an unloaded one
func (s *ReviewService) GetStats(key entities.BucketKey) entities.RatingStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.buckets[key]; ok {
		return b.stats.Clone()
	}
	return rating.CalculateStats(nil)
}

// SortedReviews returns the cached reviews of a bucket ordered by the given key
func (s *ReviewService) SortedReviews(key entities.BucketKey, by entities.SortKey) []*entities.Review {
	return rating.SortReviews(s.GetReviews(key), by)
}

// AddReview appends a new review by userID to the bucket
func (s *ReviewService) AddReview(ctx context.Context, key entities.BucketKey, input entities.ReviewInput, userID string) (*entities.Review, error) {
	if err := validateBucket(key); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	review := &entities.Review{
		ID:         s.newID(),
		TargetID:   key.TargetID,
		TargetType: key.TargetType,
		UserID:     userID,
		UserName:   input.UserName,
		UserAvatar: input.UserAvatar,
		Rating:     input.Rating,
		Title:      input.Title,
		Comment:    input.Comment,
		Photos:     slices.Clone(input.Photos),
		Helpful:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	unlock := s.locks.lock(key.String())
	defer unlock()
	s.ensureLoaded(ctx, key)

	stored, err := s.repo.MutateBucket(ctx, key, func(reviews []*entities.Review) ([]*entities.Review, bool, error) {
		return append(reviews, review.Clone()), true, nil
	})
	if err != nil {
		s.writeFailed(ctx, key, "add", err)
		s.setBucket(key, append(s.cachedReviews(key), review.Clone()))
		return review, err
	}

	s.setBucket(key, stored)
	s.mutated(ctx, entities.ReviewEventCreated, key, review.ID)
	return review, nil
}

// UpdateReview merges patch into the review with the given id, wherever it lives,
// and stamps updated_at. An unknown id is a NOT_FOUND error and touches nothing.
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID string, patch entities.ReviewPatch) (*entities.Review, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	return s.modifyReview(ctx, reviewID, "update", entities.ReviewEventUpdated, func(r *entities.Review) {
		patch.Apply(r)
		r.UpdatedAt = now
	})
}

// MarkHelpful adds one helpful vote to the review with the given id
func (s *ReviewService) MarkHelpful(ctx context.Context, reviewID string) (*entities.Review, error) {
	return s.modifyReview(ctx, reviewID, "helpful", entities.ReviewEventHelpful, func(r *entities.Review) {
		r.Helpful++
	})
}

func (s *ReviewService) modifyReview(ctx context.Context, reviewID, op string, eventType entities.ReviewEventType, change func(*entities.Review)) (*entities.Review, error) {
	key, unlock, err := s.lockOwner(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var updated *entities.Review
	stored, err := s.repo.MutateBucket(ctx, key, func(reviews []*entities.Review) ([]*entities.Review, bool, error) {
		i := slices.IndexFunc(reviews, func(r *entities.Review) bool { return r != nil && r.ID == reviewID })
		if i < 0 {
			return nil, false, notFound(reviewID)
		}
		next := slices.Clone(reviews)
		next[i] = reviews[i].Clone()
		change(next[i])
		updated = next[i]
		return next, true, nil
	})

	switch {
	case err == nil:
		s.setBucket(key, stored)
		s.mutated(ctx, eventType, key, reviewID)
		return updated.Clone(), nil
	case apperrors.IsNotFound(err):
		// the cached copy knew an id the store does not; resync
		_ = s.loadLocked(ctx, key)
		return nil, err
	}

	s.writeFailed(ctx, key, op, err)
	cached := s.cachedReviews(key)
	i := slices.IndexFunc(cached, func(r *entities.Review) bool { return r.ID == reviewID })
	if i < 0 {
		return nil, err
	}
	cached[i] = cached[i].Clone()
	change(cached[i])
	s.setBucket(key, cached)
	return cached[i].Clone(), err
}

// DeleteReview removes the review with the given id from its bucket
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string) error {
	key, unlock, err := s.lockOwner(ctx, reviewID)
	if err != nil {
		return err
	}
	defer unlock()

	without := func(reviews []*entities.Review) ([]*entities.Review, bool) {
		next := slices.DeleteFunc(slices.Clone(reviews), func(r *entities.Review) bool {
			return r == nil || r.ID == reviewID
		})
		return next, len(next) != len(reviews)
	}

	stored, err := s.repo.MutateBucket(ctx, key, func(reviews []*entities.Review) ([]*entities.Review, bool, error) {
		next, changed := without(reviews)
		return next, changed, nil
	})
	if err != nil {
		s.writeFailed(ctx, key, "delete", err)
		next, _ := without(s.cachedReviews(key))
		s.setBucket(key, next)
		return err
	}

	s.setBucket(key, stored)
	s.mutated(ctx, entities.ReviewEventDeleted, key, reviewID)
	return nil
}

// lockOwner finds the bucket holding reviewID and locks it. Cached buckets are
// searched first, then the stored index, whose bucket is loaded if needed.
func (s *ReviewService) lockOwner(ctx context.Context, reviewID string) (entities.BucketKey, func(), error) {
	key, ok := s.locate(reviewID)
	if !ok {
		located, err := s.repo.LocateReview(ctx, reviewID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return entities.BucketKey{}, nil, notFound(reviewID)
			}
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("review_id", reviewID).
				Msg("failed to locate review")
			return entities.BucketKey{}, nil, err
		}
		key = located
	}
	unlock := s.locks.lock(key.String())
	s.ensureLoaded(ctx, key)

	// the review may have moved or gone while we waited
	if current, ok := s.locate(reviewID); !ok || current != key {
		unlock()
		return entities.BucketKey{}, nil, notFound(reviewID)
	}
	return key, unlock, nil
}

func notFound(reviewID string) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("review %s not found", reviewID))
}

// StatsForBuckets returns stats for every key, loading uncached buckets with one
// batched read. Buckets without reviews get zero stats.
func (s *ReviewService) StatsForBuckets(ctx context.Context, keys []entities.BucketKey) (map[entities.BucketKey]entities.RatingStats, error) {
	out := make(map[entities.BucketKey]entities.RatingStats, len(keys))
	var missing []entities.BucketKey
	for _, key := range keys {
		if err := validateBucket(key); err != nil {
			return nil, err
		}
		if s.IsLoaded(key) {
			out[key] = s.GetStats(key)
		} else if !slices.Contains(missing, key) {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := s.repo.LoadBuckets(ctx, missing)
	if err != nil {
		observability.RecordStorageFailure(ctx, s.metrics, "reviews.load_batch")
		return nil, err
	}

	for _, key := range missing {
		out[key] = s.adoptBucket(key, loaded[key])
	}
	return out, nil
}

// adoptBucket caches a batch-loaded bucket unless a mutation cached a newer one
// since the batch was read, and returns the stats of whichever copy is kept.
func (s *ReviewService) adoptBucket(key entities.BucketKey, reviews []*entities.Review) entities.RatingStats {
	unlock := s.locks.lock(key.String())
	defer unlock()

	if !s.IsLoaded(key) {
		s.setBucket(key, reviews)
	}
	return s.GetStats(key)
}

func (s *ReviewService) writeFailed(ctx context.Context, key entities.BucketKey, op string, err error) {
	observability.LoggerFromContext(ctx).Warn().
		Err(err).
		Str("bucket", key.String()).
		Str("op", op).
		Msg("failed to persist reviews, keeping in-memory bucket")
	observability.RecordStorageFailure(ctx, s.metrics, "reviews."+op)
}

func (s *ReviewService) mutated(ctx context.Context, eventType entities.ReviewEventType, key entities.BucketKey, reviewID string) {
	observability.RecordReviewMutation(ctx, s.metrics, string(eventType))
	if s.eventBus == nil {
		return
	}

	event := &entities.ReviewEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Bucket:    key,
		ReviewID:  reviewID,
		Origin:    s.instanceID,
		Timestamp: s.now().UTC(),
	}
	if err := s.eventBus.Publish(ctx, s.channel, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("bucket", key.String()).
			Msg("failed to publish review event")
	}
}
