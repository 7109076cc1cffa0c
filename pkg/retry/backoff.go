package retry

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand"
	"time"

	errs "threadscli/pkg/errors"
)

// BackoffStrategy defines the interface for different backoff strategies
type BackoffStrategy interface {
	// NextDelay returns the delay before the attempt following attempt
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor adds randomness (0.0 to 1.0)
	JitterFactor float64
}

// DefaultExponentialBackoff returns a backoff with sensible defaults
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	multiplier := eb.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(eb.BaseDelay) * math.Pow(multiplier, float64(attempt-1))

	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// KindBackoff selects a backoff strategy by the failure class. Upstream
// throttling (HTTP 429) backs off longer than server or network failures.
type KindBackoff struct {
	Default   BackoffStrategy
	RateLimit BackoffStrategy
}

// NewKindBackoff wraps base, deriving a slower strategy for rate limiting
func NewKindBackoff(base BackoffStrategy) *KindBackoff {
	rl := base
	if eb, ok := base.(*ExponentialBackoff); ok {
		slow := *eb
		slow.BaseDelay = eb.BaseDelay * 5
		slow.MaxDelay = eb.MaxDelay * 6
		rl = &slow
	}
	return &KindBackoff{Default: base, RateLimit: rl}
}

// NextDelay uses the default strategy
func (kb *KindBackoff) NextDelay(attempt int) time.Duration {
	return kb.Default.NextDelay(attempt)
}

// ForError returns the strategy to use after err
func (kb *KindBackoff) ForError(err error) BackoffStrategy {
	var e *errs.Error
	if stderrors.As(err, &e) && e.Kind == errs.KindHTTP && e.Status == 429 {
		return kb.RateLimit
	}
	return kb.Default
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
