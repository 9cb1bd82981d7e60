package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter ограничивает количество запросов на пользователя.
// Token bucket на каждого пользователя: limit запросов за window,
// всплеск до limit.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*userLimiter
	rps      rate.Limit
	burst    int
	window   time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := newRateLimiter(limit, window, time.Now)
	go rl.cleanup()
	return rl
}

func newRateLimiter(limit int, window time.Duration, now func() time.Time) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &RateLimiter{
		limiters: make(map[int64]*userLimiter),
		rps:      rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
		window:   window,
		now:      now,
		stopCh:   make(chan struct{}),
	}
}

// Close останавливает фоновую горутину очистки.
// Его надо вызывать на shutdown (иначе cleanup будет жить вечно).
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	ul, ok := rl.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.limiter.AllowN(now, 1)
}

// evictIdle выкидывает тех, кто молчит дольше window: их ведро уже полное,
// новый limiter ничем не отличается.
func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.window)
	for userID, ul := range rl.limiters {
		if ul.lastSeen.Before(cutoff) {
			delete(rl.limiters, userID)
		}
	}
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}
