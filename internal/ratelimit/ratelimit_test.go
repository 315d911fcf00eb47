package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Unlimited(t *testing.T) {
	l := New(0)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow())
	}
	require.NoError(t, l.Wait(context.Background()))
}

func TestLimiter_NilNeverBlocks(t *testing.T) {
	var l *Limiter
	assert.True(t, l.Allow())
	assert.NoError(t, l.Wait(context.Background()))
}

func TestLimiter_BurstExhausted(t *testing.T) {
	l := NewWithBurst(0.001, 1)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx))
}
