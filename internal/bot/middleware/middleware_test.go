package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerUser(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(3, time.Minute, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(1), "запрос %d", i)
	}
	assert.False(t, rl.Allow(1), "четвёртый запрос за минуту режется")
	assert.True(t, rl.Allow(2), "лимит у каждого свой")

	// через треть минуты восстанавливается один токен
	now = now.Add(20 * time.Second)
	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1, time.Minute, func() time.Time { return now })

	rl.Allow(1)
	now = now.Add(30 * time.Second)
	rl.Allow(2)

	now = now.Add(45 * time.Second)
	rl.evictIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.limiters, int64(1))
	assert.Contains(t, rl.limiters, int64(2))
}

func TestRecoverFromPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		defer RecoverFromPanic("test", 1)
		panic("boom")
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "привет...", truncate("привет мир", 6))
}
