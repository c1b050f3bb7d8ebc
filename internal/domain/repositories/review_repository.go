package repositories

import (
	"context"

	"github.com/zatekoja/apprating/internal/domain/entities"
)

// BucketMutation transforms a bucket. Returning changed=false skips the write.
type BucketMutation func(reviews []*entities.Review) (next []*entities.Review, changed bool, err error)

// ReviewRepository persists review buckets as whole snapshots.
type ReviewRepository interface {
	// LoadBucket returns NOT_FOUND when the bucket was never written
	LoadBucket(ctx context.Context, key entities.BucketKey) ([]*entities.Review, error)

	// LoadBuckets reads several buckets in one round trip; absent buckets are omitted
	LoadBuckets(ctx context.Context, keys []entities.BucketKey) (map[entities.BucketKey][]*entities.Review, error)

	// MutateBucket runs fn as an atomic read-modify-write of one bucket and
	// returns the bucket as it stands afterwards
	MutateBucket(ctx context.Context, key entities.BucketKey, fn BucketMutation) ([]*entities.Review, error)

	// LocateReview returns the bucket a persisted review lives in, NOT_FOUND when
	// no bucket is recorded for the id
	LocateReview(ctx context.Context, reviewID string) (entities.BucketKey, error)
}
