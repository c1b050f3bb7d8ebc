package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/providers"
	"github.com/zatekoja/apprating/internal/domain/repositories"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

// UserRatingAdapter stores a user's standalone rating as a plain decimal string
type UserRatingAdapter struct {
	store providers.KVStore
}

// NewUserRatingAdapter creates a new user rating repository
func NewUserRatingAdapter(store providers.KVStore) repositories.UserRatingRepository {
	return &UserRatingAdapter{store: store}
}

// Get reads the stored rating
func (a *UserRatingAdapter) Get(ctx context.Context, key entities.UserRatingKey) (float64, error) {
	storeKey := UserRatingKey(key)
	data, err := a.store.GetString(ctx, storeKey)
	if errors.Is(err, providers.ErrKeyNotFound) {
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("no rating under %s", storeKey))
	}
	if err != nil {
		return 0, apperrors.NewStorageError("failed to read rating", err)
	}

	value, err := strconv.ParseFloat(data, 64)
	if err != nil {
		return 0, apperrors.NewCorruptError(fmt.Sprintf("rating under %s is not a number", storeKey), err)
	}
	return value, nil
}

// Save writes the rating
func (a *UserRatingAdapter) Save(ctx context.Context, key entities.UserRatingKey, value float64) error {
	data := strconv.FormatFloat(value, 'f', -1, 64)
	if err := a.store.SetString(ctx, UserRatingKey(key), data); err != nil {
		return apperrors.NewStorageError("failed to write rating", err)
	}
	return nil
}

// Delete removes the rating
func (a *UserRatingAdapter) Delete(ctx context.Context, key entities.UserRatingKey) error {
	if err := a.store.RemoveItem(ctx, UserRatingKey(key)); err != nil {
		return apperrors.NewStorageError("failed to remove rating", err)
	}
	return nil
}
