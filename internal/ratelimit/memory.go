package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSweepInterval как часто MemoryLimiter удаляет ключи с полностью восстановленным лимитом.
const DefaultSweepInterval = time.Minute

// MemoryLimiter лимитер в памяти процесса, по одному rate.Limiter на ключ.
// Ключ, лимит которого восстановился полностью, ничем не отличается от нового и удаляется при очередной
// чистке, поэтому размер карты ограничен числом ключей, активных за последние burst/rate.
type MemoryLimiter struct {
	mu            sync.Mutex
	limiters      map[string]*rate.Limiter
	limit         rate.Limit
	burst         int
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
}

// NewMemory создает лимитер на ratePerMinute запросов в минуту с запасом burst.
func NewMemory(ratePerMinute, burst int) *MemoryLimiter {
	if burst < 1 {
		burst = 1
	}
	return &MemoryLimiter{
		limiters:      make(map[string]*rate.Limiter),
		limit:         rate.Limit(float64(ratePerMinute) / 60), //nolint:mnd
		burst:         burst,
		sweepInterval: DefaultSweepInterval,
		lastSweep:     time.Now(),
		now:           time.Now,
	}
}

// SetSweepInterval устанавливает период чистки неактивных ключей.
func (m *MemoryLimiter) SetSweepInterval(d time.Duration) *MemoryLimiter {
	m.sweepInterval = d
	return m
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	if m.limit <= 0 {
		return Result{Allowed: true, Remaining: int64(m.burst)}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	limiter, ok := m.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(m.limit, m.burst)
		m.limiters[key] = limiter
	}

	reservation := limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return Result{
			Allowed:    false,
			RetryAfter: time.Duration(math.Ceil(delay.Seconds())) * time.Second,
		}, nil
	}

	return Result{
		Allowed:   true,
		Remaining: int64(math.Max(0, math.Floor(limiter.TokensAt(now)))),
	}, nil
}

func (m *MemoryLimiter) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

// sweep вызывается под m.mu.
func (m *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.sweepInterval {
		return
	}
	m.lastSweep = now

	for key, limiter := range m.limiters {
		if limiter.TokensAt(now) >= float64(m.burst) {
			delete(m.limiters, key)
		}
	}
}
