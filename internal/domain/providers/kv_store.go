package providers

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KVStore reads when the key holds no value.
var ErrKeyNotFound = errors.New("key not found")

// UpdateFunc computes the next value of a key from its current one. Returning
// write=false leaves the key as it is.
type UpdateFunc func(current string, exists bool) (next string, write bool, err error)

// KVStore is the string key-value persistence used for prompt state and review buckets
type KVStore interface {
	// GetString retrieves a value, or ErrKeyNotFound
	GetString(ctx context.Context, key string) (string, error)

	// SetString stores a value
	SetString(ctx context.Context, key, value string) error

	// RemoveItem deletes a key; removing a missing key is not an error
	RemoveItem(ctx context.Context, key string) error

	// GetMulti retrieves several keys at once; missing keys are absent from the result
	GetMulti(ctx context.Context, keys []string) (map[string]string, error)

	// Update applies fn to the current value atomically with respect to other
	// writers of the same key
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// GetStringOr returns the stored value or def when the key is absent.
func GetStringOr(ctx context.Context, store KVStore, key, def string) (string, error) {
	value, err := store.GetString(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return value, nil
}
