package repositories

import (
	"context"

	"github.com/zatekoja/apprating/internal/domain/entities"
)

// FeedbackRepository defines the interface for low-rating feedback
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *entities.Feedback) error
	List(ctx context.Context, storageKey string) ([]*entities.Feedback, error)
}
