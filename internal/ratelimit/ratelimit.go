// Package ratelimit ограничивает частоту запросов по ключу (id юзера) алгоритмом token bucket.
package ratelimit

import (
	"context"
	"time"
)

// Result результат проверки лимита.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter проверяет и расходует лимит по ключу key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
