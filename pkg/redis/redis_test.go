package redis_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/redis"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	client, err := redis.Connect(t.Context(), redis.Config{
		ConnectionURL:  "redis://" + mr.Addr() + "/0",
		RetryAttempts:  1,
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, redis.Healthcheck(client)(t.Context()))

	mr.Close()
	assert.ErrorIs(t, redis.Healthcheck(client)(t.Context()), redis.ErrHealthcheckFailed)
}

func TestConnectErrors(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(t.Context(), redis.Config{})
	require.ErrorIs(t, err, redis.ErrEmptyURL)

	_, err = redis.Connect(t.Context(), redis.Config{ConnectionURL: "mysql://nope"})
	require.ErrorIs(t, err, redis.ErrInvalidURL)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = redis.Connect(t.Context(), redis.Config{
		ConnectionURL: "redis://" + addr,
		RetryAttempts: 2,
		RetryInterval: 10 * time.Millisecond,
	})
	require.ErrorIs(t, err, redis.ErrNotReady)
}
