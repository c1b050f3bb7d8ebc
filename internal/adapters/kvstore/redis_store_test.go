package kvstore

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	redisclient "github.com/zatekoja/apprating/internal/infrastructure/clients/redis"
)

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("APPRATING_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("APPRATING_TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.FlushDB(context.Background()).Err())

	runStoreContract(t, NewRedisStore(redisclient.NewFromRedis(rdb)))
}
