package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestBucket(capacity int, period time.Duration) (*TokenBucket, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tb := NewTokenBucket(capacity, period)
	tb.now = clock.Now
	tb.last = clock.t
	return tb, clock
}

func TestTokenBucketBurstThenSteadyRate(t *testing.T) {
	tb, clock := newTestBucket(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow(), "token %d", i+1)
	}
	assert.False(t, tb.Allow())
	assert.Equal(t, 20*time.Second, tb.Delay())

	clock.t = clock.t.Add(5 * time.Second)
	assert.Equal(t, 15*time.Second, tb.Delay())

	clock.t = clock.t.Add(15 * time.Second)
	assert.Zero(t, tb.Delay())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketNeverExceedsCapacity(t *testing.T) {
	tb, clock := newTestBucket(2, time.Minute)

	clock.t = clock.t.Add(time.Hour)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	tb.Reset()
	assert.Equal(t, tb.capacity, tb.tokens)
}

func TestTokenBucketWaitHonoursContext(t *testing.T) {
	tb, _ := newTestBucket(1, time.Hour)
	assert.NoError(t, tb.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tb.Wait(ctx), context.DeadlineExceeded)
}

func TestPerMinute(t *testing.T) {
	assert.IsType(t, Unlimited{}, PerMinute(0))
	assert.IsType(t, &TokenBucket{}, PerMinute(30))

	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, Unlimited{}.Wait(ctx))
	assert.Zero(t, Unlimited{}.Delay())
	cancel()
	assert.Error(t, Unlimited{}.Wait(ctx))
}
