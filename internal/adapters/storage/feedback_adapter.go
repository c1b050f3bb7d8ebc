package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/providers"
	"github.com/zatekoja/apprating/internal/domain/repositories"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

// FeedbackAdapter appends feedback entries to a JSON list per storage key
type FeedbackAdapter struct {
	store providers.KVStore
}

// NewFeedbackAdapter creates a new feedback repository
func NewFeedbackAdapter(store providers.KVStore) repositories.FeedbackRepository {
	return &FeedbackAdapter{store: store}
}

// Create appends a feedback record
func (a *FeedbackAdapter) Create(ctx context.Context, feedback *entities.Feedback) error {
	if feedback == nil {
		return apperrors.NewInternalError("feedback is nil", fmt.Errorf("feedback is nil"))
	}

	key := FeedbackKey(feedback.StorageKey)
	var decodeErr error
	err := a.store.Update(ctx, key, func(current string, exists bool) (string, bool, error) {
		var list []*entities.Feedback
		if exists {
			if err := json.Unmarshal([]byte(current), &list); err != nil {
				decodeErr = apperrors.NewCorruptError(fmt.Sprintf("feedback under %s is not valid JSON", key), err)
				return "", false, decodeErr
			}
		}
		list = append(list, feedback)
		data, err := json.Marshal(list)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	})
	if decodeErr != nil {
		return decodeErr
	}
	if err != nil {
		return apperrors.NewStorageError("failed to create feedback", err)
	}
	return nil
}

// List returns the feedback recorded under storageKey, oldest first
func (a *FeedbackAdapter) List(ctx context.Context, storageKey string) ([]*entities.Feedback, error) {
	data, err := providers.GetStringOr(ctx, a.store, FeedbackKey(storageKey), "[]")
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read feedback", err)
	}

	var list []*entities.Feedback
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, apperrors.NewCorruptError("feedback is not valid JSON", err)
	}
	return list, nil
}
