package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreBackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "@app_rating", cfg.Rating.StorageKey)
	assert.Equal(t, 3, cfg.Rating.ActionsBeforeRating)
	assert.Equal(t, 90, cfg.Rating.DaysBetweenRatings)
	assert.Equal(t, 4, cfg.Rating.MinimumRatingForStoreReview)
	assert.Equal(t, "mock", cfg.StoreReview.Provider)
	assert.Equal(t, 5*time.Second, cfg.StoreReview.Timeout)
	assert.Equal(t, "reviews:updates", cfg.Events.Channel)
}

func TestLoad_RatingOverrides(t *testing.T) {
	t.Setenv("RATING_ACTIONS_BEFORE_RATING", "5")
	t.Setenv("RATING_DAYS_BETWEEN_RATINGS", "30")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Rating.ActionsBeforeRating)
	assert.Equal(t, 30, cfg.Rating.DaysBetweenRatings)
	assert.Equal(t, StoreBackendRedis, cfg.Store.Backend)
	assert.Equal(t, "cache:6380", cfg.Redis.RedisAddr())
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "etcd")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsStoreReviewThreshold(t *testing.T) {
	t.Setenv("RATING_MIN_FOR_STORE_REVIEW", "6")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "apprating", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=apprating sslmode=disable", c.DatabaseDSN())
}
