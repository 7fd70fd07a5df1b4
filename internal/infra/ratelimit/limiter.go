package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// 固定ウィンドウ（INCR + EXPIRE）
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

var incrScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if l.limit <= 0 {
		return Result{Allowed: true}, nil
	}

	res, err := incrScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis rate limit: %w", err)
	}
	if len(res) != 2 {
		return Result{}, fmt.Errorf("unexpected redis response length: %d", len(res))
	}

	count := int(res[0])
	ttl := time.Duration(res[1]) * time.Millisecond
	if count > l.limit {
		return Result{Allowed: false, RetryAfter: ttl}, nil
	}
	return Result{Allowed: true, Remaining: l.limit - count}, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}

// REDIS_ADDRが空のとき用
type Noop struct{}

func (Noop) Allow(context.Context, string) (Result, error) { return Result{Allowed: true}, nil }
func (Noop) Reset(context.Context, string) error           { return nil }

// Connectは疎通確認までする
func Connect(ctx context.Context, addr string, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}
