package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/providers"
	"github.com/zatekoja/apprating/internal/domain/repositories"
	"github.com/zatekoja/apprating/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

// ReviewAdapter stores each bucket as a JSON array under one key, plus one index
// key per review naming its bucket.
type ReviewAdapter struct {
	store providers.KVStore
}

// NewReviewAdapter creates a new review repository
func NewReviewAdapter(store providers.KVStore) repositories.ReviewRepository {
	return &ReviewAdapter{store: store}
}

// LoadBucket reads one bucket
func (a *ReviewAdapter) LoadBucket(ctx context.Context, key entities.BucketKey) ([]*entities.Review, error) {
	data, err := a.store.GetString(ctx, BucketKey(key))
	if errors.Is(err, providers.ErrKeyNotFound) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no reviews for %s", key))
	}
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read reviews for %s", key), err)
	}
	return decodeBucket(key, data)
}

// LoadBuckets reads several buckets with one multi-get
func (a *ReviewAdapter) LoadBuckets(ctx context.Context, keys []entities.BucketKey) (map[entities.BucketKey][]*entities.Review, error) {
	storeKeys := make([]string, len(keys))
	for i, key := range keys {
		storeKeys[i] = BucketKey(key)
	}

	values, err := a.store.GetMulti(ctx, storeKeys)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read %d buckets", len(keys)), err)
	}

	out := make(map[entities.BucketKey][]*entities.Review, len(values))
	for i, key := range keys {
		data, ok := values[storeKeys[i]]
		if !ok {
			continue
		}
		reviews, err := decodeBucket(key, data)
		if err != nil {
			return nil, err
		}
		out[key] = reviews
	}
	return out, nil
}

// MutateBucket applies fn atomically to the stored bucket. A corrupt snapshot is
// handed to fn as an empty bucket and overwritten by the result. Index keys of
// added and removed reviews are updated after the bucket is written.
func (a *ReviewAdapter) MutateBucket(ctx context.Context, key entities.BucketKey, fn repositories.BucketMutation) ([]*entities.Review, error) {
	var before, result []*entities.Review
	var written bool
	var domainErr error

	err := a.store.Update(ctx, BucketKey(key), func(current string, exists bool) (string, bool, error) {
		var reviews []*entities.Review
		if exists {
			decoded, err := decodeBucket(key, current)
			if err != nil {
				observability.LoggerFromContext(ctx).Warn().
					Err(err).
					Str("bucket", key.String()).
					Msg("replacing corrupt review bucket")
			}
			reviews = decoded
		}
		before = reviews
		written = false

		next, changed, err := fn(reviews)
		if err != nil {
			domainErr = err
			return "", false, err
		}
		result = next
		if !changed {
			result = reviews
			return "", false, nil
		}

		data, err := json.Marshal(newReviewRecords(next))
		if err != nil {
			domainErr = apperrors.NewInternalError("failed to encode reviews", err)
			return "", false, domainErr
		}
		written = true
		return string(data), true, nil
	})
	if domainErr != nil {
		return nil, domainErr
	}
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to write reviews for %s", key), err)
	}
	if written {
		a.reindex(ctx, key, before, result)
	}
	return result, nil
}

// reindex records the bucket of new ids and drops ids no longer in it. The bucket
// stays the source of truth, so index failures are only logged.
func (a *ReviewAdapter) reindex(ctx context.Context, key entities.BucketKey, before, after []*entities.Review) {
	logger := observability.LoggerFromContext(ctx)
	kept := make(map[string]struct{}, len(after))
	for _, r := range after {
		if r == nil {
			continue
		}
		kept[r.ID] = struct{}{}
		if containsID(before, r.ID) {
			continue
		}
		if err := a.store.SetString(ctx, ReviewIndexKey(r.ID), key.String()); err != nil {
			logger.Warn().Err(err).Str("review_id", r.ID).Msg("failed to index review")
		}
	}
	for _, r := range before {
		if r == nil {
			continue
		}
		if _, ok := kept[r.ID]; ok {
			continue
		}
		if err := a.store.RemoveItem(ctx, ReviewIndexKey(r.ID)); err != nil {
			logger.Warn().Err(err).Str("review_id", r.ID).Msg("failed to unindex review")
		}
	}
}

// LocateReview reads the index key of reviewID
func (a *ReviewAdapter) LocateReview(ctx context.Context, reviewID string) (entities.BucketKey, error) {
	data, err := a.store.GetString(ctx, ReviewIndexKey(reviewID))
	if errors.Is(err, providers.ErrKeyNotFound) {
		return entities.BucketKey{}, apperrors.NewNotFoundError(fmt.Sprintf("review %s not found", reviewID))
	}
	if err != nil {
		return entities.BucketKey{}, apperrors.NewStorageError(fmt.Sprintf("failed to locate review %s", reviewID), err)
	}
	key, err := entities.ParseBucketKey(data)
	if err != nil {
		return entities.BucketKey{}, apperrors.NewCorruptError(fmt.Sprintf("index of review %s is not a bucket key", reviewID), err)
	}
	return key, nil
}

func containsID(reviews []*entities.Review, id string) bool {
	for _, r := range reviews {
		if r != nil && r.ID == id {
			return true
		}
	}
	return false
}

// decodeBucket parses a stored bucket. Entries written without a target take the
// bucket's.
func decodeBucket(key entities.BucketKey, data string) ([]*entities.Review, error) {
	var records []reviewRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, apperrors.NewCorruptError(fmt.Sprintf("reviews for %s are not valid JSON", key), err)
	}

	reviews := make([]*entities.Review, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			return nil, apperrors.NewCorruptError(fmt.Sprintf("reviews for %s contain an entry without id", key), nil)
		}
		review := rec.entity()
		if review.TargetType == "" && review.TargetID == "" {
			review.TargetType, review.TargetID = key.TargetType, key.TargetID
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}
