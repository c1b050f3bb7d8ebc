package services

import (
	"context"

	"github.com/zatekoja/apprating/internal/domain/providers"
	"github.com/zatekoja/apprating/internal/infrastructure/observability"
)

// StoreReviewService asks the platform for a native store review. Provider failures
// are logged and reported as false; they never reach the caller.
type StoreReviewService struct {
	provider providers.StoreReviewProvider
}

// NewStoreReviewService creates a new store review service
func NewStoreReviewService(provider providers.StoreReviewProvider) *StoreReviewService {
	return &StoreReviewService{provider: provider}
}

// IsStoreReviewAvailable reports whether a review sheet can be shown
func (s *StoreReviewService) IsStoreReviewAvailable(ctx context.Context) bool {
	if s == nil || s.provider == nil {
		return false
	}
	available, err := s.provider.IsAvailable(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("store review availability check failed")
		return false
	}
	return available
}

// RequestStoreReview shows the review sheet when available and reports whether it was requested
func (s *StoreReviewService) RequestStoreReview(ctx context.Context) bool {
	if !s.IsStoreReviewAvailable(ctx) {
		return false
	}
	if err := s.provider.RequestReview(ctx); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("store review request failed")
		return false
	}
	return true
}
