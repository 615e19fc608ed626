package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "imagify:ratelimit:"
	keyTTL    = 120 * time.Second
)

// tokenBucketScript атомарно пополняет и расходует токены ключа.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- bucket capacity
	local now = tonumber(ARGV[3])       -- current time in seconds
	local ttl = tonumber(ARGV[4])       -- TTL in seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = math.max(0, now - last_update)
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// RedisLimiter лимитер, общий для всех реплик сервиса.
type RedisLimiter struct {
	client        *redis.Client
	ratePerSecond float64
	burst         int
}

// NewRedis подключается к redis по redisURL и проверяет соединение.
func NewRedis(ctx context.Context, redisURL string, ratePerMinute, burst int) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opt)
	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if burst < 1 {
		burst = 1
	}
	return &RedisLimiter{
		client:        client,
		ratePerSecond: float64(ratePerMinute) / 60, //nolint:mnd
		burst:         burst,
	}, nil
}

// Allow возвращает ошибку при недоступности redis, решение пропускать ли запрос остается за вызывающим.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if r.ratePerSecond <= 0 {
		return Result{Allowed: true, Remaining: int64(r.burst)}, nil
	}

	now := float64(time.Now().UnixMilli()) / 1000 //nolint:mnd
	res, err := tokenBucketScript.Run(ctx, r.client,
		[]string{keyPrefix + key},
		r.ratePerSecond, r.burst, now, int(keyTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("run token bucket script: %w", err)
	}

	return Result{
		Allowed:    res[0] == 1,
		Remaining:  res[2],
		RetryAfter: time.Duration(res[1]) * time.Second,
	}, nil
}

func (r *RedisLimiter) Close() error {
	return r.client.Close() //nolint:wrapcheck
}

func (r *RedisLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err() //nolint:wrapcheck
}
