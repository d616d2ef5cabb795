package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPLimiter_RefillsAndSweeps(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPLimiter(2, time.Minute, "slow down")
	l.now = func() time.Time { return now }

	assert.True(t, l.get("a").AllowN(now, 1))
	assert.True(t, l.get("a").AllowN(now, 1))
	assert.False(t, l.get("a").AllowN(now, 1))
	assert.True(t, l.get("b").AllowN(now, 1), "keys are independent")

	now = now.Add(30 * time.Second)
	assert.True(t, l.get("a").AllowN(now, 1), "one token refilled after half the window")

	now = now.Add(2 * time.Minute)
	l.get("c")
	l.mu.Lock()
	_, stillA := l.limiters["a"]
	l.mu.Unlock()
	assert.False(t, stillA, "idle limiters are swept")
}
