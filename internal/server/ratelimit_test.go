package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	limiter := NewRateLimiter(60, 2, time.Minute, testLogger)
	defer limiter.Close()

	assert.True(t, limiter.Allow("ip:1.1.1.1"))
	assert.True(t, limiter.Allow("ip:1.1.1.1"))
	assert.False(t, limiter.Allow("ip:1.1.1.1"), "burst exhausted")
	assert.True(t, limiter.Allow("ip:2.2.2.2"), "keys have separate buckets")

	stats := limiter.GetStats()
	assert.Equal(t, 2, stats["active_limiters"])
	assert.Equal(t, int64(1), stats["rejected_requests"])
	assert.InDelta(t, 60.0, stats["rate_per_minute"], 0.0001)
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(60, 1, time.Minute, testLogger)
	defer limiter.Close()

	limiter.GetLimiter("stale")
	limiter.GetLimiter("fresh")

	limiter.mu.Lock()
	limiter.lastSeen["stale"] = time.Now().Add(-2 * time.Minute)
	limiter.mu.Unlock()

	limiter.cleanup(time.Now())

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.limiters, "stale")
	assert.Contains(t, limiter.limiters, "fresh")
}
