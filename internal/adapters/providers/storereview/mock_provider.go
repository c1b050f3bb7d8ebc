package storereview

import (
	"context"
	"sync/atomic"

	"github.com/zatekoja/apprating/internal/domain/providers"
)

// MockProvider stands in for the platform review sheet in development and tests
type MockProvider struct {
	available bool
	requests  atomic.Int64
}

// NewMockProvider creates a mock provider that reports the given availability
func NewMockProvider(available bool) *MockProvider {
	return &MockProvider{available: available}
}

var _ providers.StoreReviewProvider = (*MockProvider)(nil)

// IsAvailable reports the configured availability
func (m *MockProvider) IsAvailable(ctx context.Context) (bool, error) {
	return m.available, nil
}

// RequestReview counts the request
func (m *MockProvider) RequestReview(ctx context.Context) error {
	if !m.available {
		return ErrUnavailable
	}
	m.requests.Add(1)
	return nil
}

// Requests returns how many review sheets were requested
func (m *MockProvider) Requests() int64 {
	return m.requests.Load()
}
