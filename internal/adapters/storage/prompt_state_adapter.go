package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/providers"
	"github.com/zatekoja/apprating/internal/domain/repositories"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

// PromptStateAdapter stores prompt state as a JSON snapshot
type PromptStateAdapter struct {
	store providers.KVStore
}

// NewPromptStateAdapter creates a new prompt state repository
func NewPromptStateAdapter(store providers.KVStore) repositories.PromptStateRepository {
	return &PromptStateAdapter{store: store}
}

// Load reads the state stored under storageKey
func (a *PromptStateAdapter) Load(ctx context.Context, storageKey string) (*entities.PromptState, error) {
	key := PromptStateKey(storageKey)

	data, err := a.store.GetString(ctx, key)
	if errors.Is(err, providers.ErrKeyNotFound) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no prompt state under %s", key))
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read prompt state", err)
	}

	var rec promptStateRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, apperrors.NewCorruptError(fmt.Sprintf("prompt state under %s is not valid JSON", key), err)
	}
	if rec.ActionCount < 0 {
		return nil, apperrors.NewCorruptError(fmt.Sprintf("prompt state under %s has negative action count", key), nil)
	}
	return rec.entity(), nil
}

// Save writes the state under storageKey
func (a *PromptStateAdapter) Save(ctx context.Context, storageKey string, state *entities.PromptState) error {
	data, err := json.Marshal(newPromptStateRecord(state))
	if err != nil {
		return apperrors.NewInternalError("failed to encode prompt state", err)
	}
	if err := a.store.SetString(ctx, PromptStateKey(storageKey), string(data)); err != nil {
		return apperrors.NewStorageError("failed to write prompt state", err)
	}
	return nil
}
