package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBroker = errors.New("broker unreachable")

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "publish", fastRetry(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errBroker
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "publish", fastRetry(2), func(context.Context) error {
		calls++
		return errBroker
	})
	assert.ErrorIs(t, err, errBroker)
	assert.Contains(t, err.Error(), "all 2 attempts failed")
	assert.Equal(t, 2, calls)
}

func TestRetryPermanentStops(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "reload", fastRetry(5), func(context.Context) error {
		calls++
		return Permanent(errBroker)
	})
	assert.Equal(t, errBroker, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Hour, MaxDelay: time.Hour}
	err := Retry(ctx, "publish", cfg, func(context.Context) error {
		cancel()
		return errBroker
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffBounds(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}.withDefaults()
	assert.Equal(t, 100*time.Millisecond, backoff(1, cfg))
	assert.Equal(t, 400*time.Millisecond, backoff(3, cfg))
	assert.Equal(t, time.Second, backoff(10, cfg))
}

func TestBreakerTripsAndRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBreaker("redis", BreakerConfig{FailureThreshold: 2, Cooldown: time.Minute})
	b.now = func() time.Time { return now }

	fail := func() error { return errBroker }
	ok := func() error { return nil }

	assert.ErrorIs(t, b.Do(fail), errBroker)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Do(fail), errBroker)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(time.Minute)
	assert.ErrorIs(t, b.Do(fail), errBroker)
	assert.Equal(t, StateOpen, b.State())

	now = now.Add(time.Minute)
	require.NoError(t, b.Do(ok))
	assert.Equal(t, StateClosed, b.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
