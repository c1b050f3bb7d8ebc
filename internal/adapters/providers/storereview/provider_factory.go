package storereview

import (
	"context"
	"errors"

	"github.com/zatekoja/apprating/internal/domain/providers"
	"github.com/zatekoja/apprating/pkg/config"
)

// ErrUnavailable is returned when no review sheet can be shown.
var ErrUnavailable = errors.New("store review is not available")

// Provider names accepted in STORE_REVIEW_PROVIDER.
const (
	ProviderMock    = "mock"
	ProviderWebhook = "webhook"
)

// NewStoreReviewProvider builds the configured provider. A webhook provider without
// a URL degrades to an unavailable mock.
func NewStoreReviewProvider(cfg config.StoreReviewConfig) providers.StoreReviewProvider {
	switch cfg.Provider {
	case ProviderWebhook:
		if cfg.WebhookURL == "" {
			return NewMockProvider(false)
		}
		return &FallbackProvider{
			primary:  NewWebhookProvider(cfg.WebhookURL, nil, cfg.Timeout),
			fallback: NewMockProvider(false),
		}
	default:
		return NewMockProvider(true)
	}
}

// FallbackProvider wraps a primary provider and answers from the fallback when the
// primary fails.
type FallbackProvider struct {
	primary  providers.StoreReviewProvider
	fallback providers.StoreReviewProvider
}

// NewFallbackProvider combines two providers
func NewFallbackProvider(primary, fallback providers.StoreReviewProvider) *FallbackProvider {
	return &FallbackProvider{primary: primary, fallback: fallback}
}

func (p *FallbackProvider) IsAvailable(ctx context.Context) (bool, error) {
	if p.primary == nil {
		if p.fallback != nil {
			return p.fallback.IsAvailable(ctx)
		}
		return false, ErrUnavailable
	}

	available, err := p.primary.IsAvailable(ctx)
	if err != nil && p.fallback != nil {
		return p.fallback.IsAvailable(ctx)
	}
	return available, err
}

func (p *FallbackProvider) RequestReview(ctx context.Context) error {
	if p.primary == nil {
		if p.fallback != nil {
			return p.fallback.RequestReview(ctx)
		}
		return ErrUnavailable
	}

	err := p.primary.RequestReview(ctx)
	if err != nil && p.fallback != nil {
		if fallbackErr := p.fallback.RequestReview(ctx); fallbackErr == nil {
			return nil
		}
	}
	return err
}
