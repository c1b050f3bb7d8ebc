package storage

import "github.com/zatekoja/apprating/internal/domain/entities"

// Key namespaces of the mobile clients' local storage layout. Review buckets and
// per-user ratings share the @reviews namespace there.
const (
	ReviewsPrefix     = "@reviews"
	ReviewIndexPrefix = "@review_index"
	FeedbackPrefix    = "@rating_feedback"
	promptSuffix      = "_rating"
)

// DefaultStorageKey is used when a caller supplies no prompt storage key.
const DefaultStorageKey = "@app_rating"

// PromptStateKey returns the key holding the prompt state for storageKey.
func PromptStateKey(storageKey string) string {
	if storageKey == "" {
		storageKey = DefaultStorageKey
	}
	return storageKey + promptSuffix
}

// BucketKey returns the key holding a review bucket.
func BucketKey(key entities.BucketKey) string {
	return ReviewsPrefix + ":" + key.TargetType + ":" + key.TargetID
}

// UserRatingKey returns the key holding one user's standalone rating.
func UserRatingKey(key entities.UserRatingKey) string {
	return ReviewsPrefix + ":" + key.TargetType + ":" + key.TargetID + ":" + key.UserID
}

// ReviewIndexKey returns the key naming the bucket that holds reviewID.
func ReviewIndexKey(reviewID string) string {
	return ReviewIndexPrefix + ":" + reviewID
}

// FeedbackKey returns the key holding the feedback list for storageKey.
func FeedbackKey(storageKey string) string {
	if storageKey == "" {
		storageKey = DefaultStorageKey
	}
	return FeedbackPrefix + ":" + storageKey
}
