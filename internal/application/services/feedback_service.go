package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/repositories"
)

// FeedbackService handles the private feedback left after a low app rating.
type FeedbackService struct {
	repo repositories.FeedbackRepository
	now  func() time.Time
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(repo repositories.FeedbackRepository) *FeedbackService {
	return &FeedbackService{repo: repo, now: time.Now}
}

// Submit validates and stores feedback.
func (s *FeedbackService) Submit(ctx context.Context, feedback *entities.Feedback) error {
	if err := feedback.Validate(); err != nil {
		return err
	}
	feedback.StorageKey = normalizeStorageKey(feedback.StorageKey)
	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = s.now().UTC()
	}
	return s.repo.Create(ctx, feedback)
}

// List returns the feedback recorded for storageKey.
func (s *FeedbackService) List(ctx context.Context, storageKey string) ([]*entities.Feedback, error) {
	return s.repo.List(ctx, normalizeStorageKey(storageKey))
}
