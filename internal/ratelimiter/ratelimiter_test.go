package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name              string
		requestsPerSecond uint
		burst             uint
		wantBurst         int
		unlimited         bool
	}{
		{name: "standard rate", requestsPerSecond: 10, burst: 20, wantBurst: 20},
		{name: "default burst", requestsPerSecond: 5, burst: 0, wantBurst: 5},
		{name: "unlimited", requestsPerSecond: 0, burst: 0, unlimited: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.requestsPerSecond, tt.burst)
			require.NotNil(t, limiter)
			assert.Equal(t, tt.unlimited, limiter.Unlimited())
			if !tt.unlimited {
				assert.Equal(t, tt.wantBurst, limiter.limiter.Burst())
			}
		})
	}
}

func TestAllow(t *testing.T) {
	limiter := New(10, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(), "request %d should be allowed within burst", i)
	}
	assert.False(t, limiter.Allow(), "request should be limited after burst")
}

func TestUnlimitedNeverBlocks(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 1000; i++ {
		require.True(t, limiter.Allow())
	}
	require.NoError(t, limiter.Wait(context.Background()))
}

func TestWait(t *testing.T) {
	limiter := New(20, 1)
	require.True(t, limiter.Allow())

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWaitContextCancellation(t *testing.T) {
	limiter := New(1, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.Error(t, err)
}

func TestNilLimiter(t *testing.T) {
	var limiter *RateLimiter

	assert.True(t, limiter.Unlimited())
	assert.True(t, limiter.Allow())
	assert.NoError(t, limiter.Wait(context.Background()))
}
