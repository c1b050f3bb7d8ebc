package repositories

import (
	"context"

	"github.com/zatekoja/apprating/internal/domain/entities"
)

// UserRatingRepository stores one standalone star value per user and target.
type UserRatingRepository interface {
	Get(ctx context.Context, key entities.UserRatingKey) (float64, error)
	Save(ctx context.Context, key entities.UserRatingKey, value float64) error
	Delete(ctx context.Context, key entities.UserRatingKey) error
}
