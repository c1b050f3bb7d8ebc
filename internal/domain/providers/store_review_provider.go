package providers

import "context"

// StoreReviewProvider triggers the platform's native "rate this app" sheet.
type StoreReviewProvider interface {
	// IsAvailable reports whether the platform can show a review sheet now
	IsAvailable(ctx context.Context) (bool, error)

	// RequestReview asks the platform to show the review sheet
	RequestReview(ctx context.Context) error
}
