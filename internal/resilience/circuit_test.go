package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker(threshold int) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: threshold,
		ResetTimeout:     time.Minute,
	})
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := testBreaker(3)
	ctx := context.Background()
	boom := func(context.Context) error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		require.Error(t, cb.Execute(ctx, boom))
	}
	assert.Equal(t, CircuitOpen, cb.State())

	err := cb.Execute(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := testBreaker(3)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, func(context.Context) error { return errors.New("boom") }))
	require.Error(t, cb.Execute(ctx, func(context.Context) error { return errors.New("boom") }))
	require.NoError(t, cb.Execute(ctx, func(context.Context) error { return nil }))
	require.Error(t, cb.Execute(ctx, func(context.Context) error { return errors.New("boom") }))

	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := testBreaker(1)
	now := time.Now()
	cb.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, func(context.Context) error { return errors.New("boom") }))
	assert.Equal(t, CircuitOpen, cb.State())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	require.NoError(t, cb.Execute(ctx, func(context.Context) error { return nil }))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := testBreaker(1)
	now := time.Now()
	cb.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, func(context.Context) error { return errors.New("boom") }))
	now = now.Add(2 * time.Minute)

	require.Error(t, cb.Execute(ctx, func(context.Context) error { return errors.New("still down") }))
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_ShouldTripFilters(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		ShouldTrip:       IsTransient,
	})
	ctx := context.Background()

	// A permanent error does not count toward the threshold.
	require.Error(t, cb.Execute(ctx, func(context.Context) error { return errors.New("not found") }))
	assert.Equal(t, CircuitClosed, cb.State())

	require.Error(t, cb.Execute(ctx, func(context.Context) error {
		return NewTransientError(errors.New("503"), 503)
	}))
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	require.Error(t, cb.Execute(context.Background(), func(context.Context) error { return errors.New("boom") }))
	cb.Reset()

	assert.Equal(t, []string{"closed->open", "open->closed"}, transitions)
}

func TestExecuteVal_ReturnsValue(t *testing.T) {
	cb := testBreaker(3)

	val, err := ExecuteVal(context.Background(), cb, func(context.Context) (string, error) {
		return "hello", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", val)
}

func TestServiceBreakers_IsolatesServices(t *testing.T) {
	sb := NewServiceBreakers(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})
	ctx := context.Background()

	require.Error(t, sb.Get("nominatim").Execute(ctx, func(context.Context) error { return errors.New("boom") }))

	assert.Equal(t, CircuitOpen, sb.Get("nominatim").State())
	assert.Equal(t, CircuitClosed, sb.Get("photon").State())

	// Same name returns the same breaker.
	assert.Same(t, sb.Get("nominatim"), sb.Get("nominatim"))
}
