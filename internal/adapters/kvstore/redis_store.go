package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/apprating/internal/domain/providers"
	redisclient "github.com/zatekoja/apprating/internal/infrastructure/clients/redis"
)

// maxWatchRetries bounds optimistic-lock retries in Update
const maxWatchRetries = 10

// ErrUpdateContention is returned when a watched key kept changing under Update
var ErrUpdateContention = errors.New("key modified concurrently, retries exhausted")

// RedisStore implements KVStore on Redis strings
type RedisStore struct {
	client *redisclient.Client
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client}
}

// GetString retrieves a value
func (s *RedisStore) GetString(ctx context.Context, key string) (string, error) {
	result, err := s.client.Client().Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", providers.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get from redis: %w", err)
	}
	return result, nil
}

// SetString stores a value without expiration
func (s *RedisStore) SetString(ctx context.Context, key, value string) error {
	if err := s.client.Client().Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// RemoveItem deletes a key
func (s *RedisStore) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// GetMulti retrieves several keys with one MGET
func (s *RedisStore) GetMulti(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	values, err := s.client.Client().MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to mget from redis: %w", err)
	}
	for i, v := range values {
		if str, ok := v.(string); ok {
			out[keys[i]] = str
		}
	}
	return out, nil
}

// Update runs fn inside WATCH/MULTI/EXEC and retries when the key changes underneath
func (s *RedisStore) Update(ctx context.Context, key string, fn providers.UpdateFunc) error {
	var fnErr error

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		exists := true
		if errors.Is(err, redis.Nil) {
			current, exists = "", false
		} else if err != nil {
			return err
		}

		next, write, err := fn(current, exists)
		if err != nil {
			fnErr = err
			return err
		}
		if !write {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		fnErr = nil
		err := s.client.Client().Watch(ctx, txf, key)
		if fnErr != nil {
			return fnErr
		}
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("failed to update %s in redis: %w", key, err)
	}
	return ErrUpdateContention
}
