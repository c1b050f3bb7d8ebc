package services

import (
	"context"

	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/rating"
	"github.com/zatekoja/apprating/internal/domain/repositories"
	"github.com/zatekoja/apprating/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

// UserRatingService stores the standalone star value one user gives one target,
// separate from any written review.
type UserRatingService struct {
	repo    repositories.UserRatingRepository
	metrics *observability.Metrics
}

// NewUserRatingService creates a new user rating service
func NewUserRatingService(repo repositories.UserRatingRepository, metrics *observability.Metrics) *UserRatingService {
	return &UserRatingService{repo: repo, metrics: metrics}
}

func validateUserRatingKey(key entities.UserRatingKey) error {
	if key.TargetType == "" || key.TargetID == "" || key.UserID == "" {
		return apperrors.NewValidationError("target type, target id and user id are required")
	}
	return nil
}

// Get returns the stored rating, 0 when the user has not rated the target yet.
// An unreadable value also reads as 0 and its error is returned.
func (s *UserRatingService) Get(ctx context.Context, key entities.UserRatingKey) (float64, error) {
	if err := validateUserRatingKey(key); err != nil {
		return 0, err
	}
	value, err := s.repo.Get(ctx, key)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return 0, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("target_id", key.TargetID).Msg("failed to read user rating")
		observability.RecordStorageFailure(ctx, s.metrics, "user_rating.get")
		return 0, err
	}
	return value, nil
}

// Save snaps value to the nearest half star in [0, 5], stores it and returns it
func (s *UserRatingService) Save(ctx context.Context, key entities.UserRatingKey, value float64) (float64, error) {
	if err := validateUserRatingKey(key); err != nil {
		return 0, err
	}
	rounded := rating.RoundToHalf(value)
	if err := s.repo.Save(ctx, key, rounded); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("target_id", key.TargetID).Msg("failed to save user rating")
		observability.RecordStorageFailure(ctx, s.metrics, "user_rating.save")
		return rounded, err
	}
	return rounded, nil
}

// Clear removes the stored rating
func (s *UserRatingService) Clear(ctx context.Context, key entities.UserRatingKey) error {
	if err := validateUserRatingKey(key); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		observability.RecordStorageFailure(ctx, s.metrics, "user_rating.clear")
		return err
	}
	return nil
}
