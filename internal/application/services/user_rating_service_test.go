package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/apprating/internal/adapters/storage"
	"github.com/zatekoja/apprating/internal/application/services"
	"github.com/zatekoja/apprating/internal/domain/entities"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

func TestUserRatingService(t *testing.T) {
	ctx := context.Background()
	store := NewFlakyStore()
	svc := services.NewUserRatingService(storage.NewUserRatingAdapter(store), nil)
	key := entities.UserRatingKey{TargetType: "product", TargetID: "p1", UserID: "u1"}

	value, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, value)

	saved, err := svc.Save(ctx, key, 3.74)
	require.NoError(t, err)
	assert.Equal(t, 3.5, saved)

	value, err = svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 3.5, value)

	saved, err = svc.Save(ctx, key, 7)
	require.NoError(t, err)
	assert.Equal(t, 5.0, saved)

	require.NoError(t, svc.Clear(ctx, key))
	value, err = svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, value, "a cleared rating reads as unrated")

	_, err = svc.Save(ctx, entities.UserRatingKey{TargetType: "product", TargetID: "p1"}, 4)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	store.failWrites.Store(true)
	saved, err = svc.Save(ctx, key, 2)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
	assert.Equal(t, 2.0, saved)
}

func TestFeedbackService(t *testing.T) {
	ctx := context.Background()
	svc := services.NewFeedbackService(storage.NewFeedbackAdapter(NewFlakyStore()))

	feedback := &entities.Feedback{Rating: 2, Message: "the sync keeps failing"}
	require.NoError(t, svc.Submit(ctx, feedback))
	assert.NotEmpty(t, feedback.ID)
	assert.Equal(t, services.DefaultStorageKey, feedback.StorageKey)
	assert.False(t, feedback.CreatedAt.IsZero())

	err := svc.Submit(ctx, &entities.Feedback{Rating: 0})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	err = svc.Submit(ctx, &entities.Feedback{Rating: 1, Email: "not-an-email"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "the sync keeps failing", list[0].Message)
}
