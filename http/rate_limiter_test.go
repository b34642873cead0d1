package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerClientBudget(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.1.1.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"), "other clients keep their own budget")
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	defer rl.Stop()

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.Eventually(t, func() bool { return rl.Allow("1.1.1.1") }, time.Second, 5*time.Millisecond)
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()

	rl.Allow("1.1.1.1")
	rl.mu.Lock()
	rl.clients["1.1.1.1"].lastSeen = time.Now().Add(-2 * visitorIdleThreshold)
	rl.mu.Unlock()

	rl.cleanup()
	assert.True(t, rl.Allow("1.1.1.1"), "a forgotten client starts with a full bucket")
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
