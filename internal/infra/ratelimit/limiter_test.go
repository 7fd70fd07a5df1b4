package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *RedisLimiter {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	client, err := Connect(ctx, addr, "")
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLimiter(client, "test:login:"+uuid.NewString()+":", 2, time.Minute)
}

func TestRedisLimiter_Allow(t *testing.T) {
	l := setupRedis(t)
	ctx := context.Background()

	r, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.Equal(t, 1, r.Remaining)

	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)

	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, r.Allowed)
	assert.Greater(t, r.RetryAfter, time.Duration(0))

	// 別のキーは独立
	r, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, r.Allowed)

	require.NoError(t, l.Reset(ctx, "1.2.3.4"))
	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
}

func TestNoop(t *testing.T) {
	r, err := Noop{}.Allow(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
}
