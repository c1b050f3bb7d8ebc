package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/apprating/internal/adapters/kvstore"
	"github.com/zatekoja/apprating/internal/domain/providers"
)

var errBackendDown = errors.New("backend down")

// FlakyStore is a memory store whose writes can be switched off.
type FlakyStore struct {
	*kvstore.MemoryStore
	failWrites atomic.Bool
}

func NewFlakyStore() *FlakyStore {
	return &FlakyStore{MemoryStore: kvstore.NewMemoryStore()}
}

func (s *FlakyStore) SetString(ctx context.Context, key, value string) error {
	if s.failWrites.Load() {
		return errBackendDown
	}
	return s.MemoryStore.SetString(ctx, key, value)
}

func (s *FlakyStore) RemoveItem(ctx context.Context, key string) error {
	if s.failWrites.Load() {
		return errBackendDown
	}
	return s.MemoryStore.RemoveItem(ctx, key)
}

func (s *FlakyStore) Update(ctx context.Context, key string, fn providers.UpdateFunc) error {
	if s.failWrites.Load() {
		return errBackendDown
	}
	return s.MemoryStore.Update(ctx, key, fn)
}

// MockStoreReviewProvider is a testify mock of the platform review sheet.
type MockStoreReviewProvider struct {
	mock.Mock
}

func (m *MockStoreReviewProvider) IsAvailable(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockStoreReviewProvider) RequestReview(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// fakeClock is a settable time source.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

const day = 24 * time.Hour
