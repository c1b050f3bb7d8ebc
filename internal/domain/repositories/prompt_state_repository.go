package repositories

import (
	"context"

	"github.com/zatekoja/apprating/internal/domain/entities"
)

// PromptStateRepository persists the rating prompt state per storage key.
type PromptStateRepository interface {
	// Load returns a NOT_FOUND error when nothing was stored yet and a CORRUPT
	// error when the stored snapshot cannot be decoded
	Load(ctx context.Context, storageKey string) (*entities.PromptState, error)
	Save(ctx context.Context, storageKey string, state *entities.PromptState) error
}
