package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := New(Settings{Name: "test", FailureThreshold: 2, Cooldown: time.Hour})
	boom := errors.New("boom")
	fail := func() error { return boom }

	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.ErrorIs(t, cb.Execute(fail), boom)

	// Threshold reached: the call is not invoked anymore.
	invoked := false
	err := cb.Execute(func() error { invoked = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, invoked)
}

func TestBreakerRecoversAfterCooldown(t *testing.T) {
	cb := New(Settings{Name: "test", FailureThreshold: 1, Cooldown: 10 * time.Millisecond})
	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	require.ErrorIs(t, cb.Execute(func() error { return nil }), ErrOpen)

	time.Sleep(20 * time.Millisecond)

	// Half-open probe succeeds and closes the breaker.
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.NoError(t, cb.Execute(func() error { return nil }))
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	cb := New(Settings{Name: "test", FailureThreshold: 1, Cooldown: 10 * time.Millisecond})
	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))

	time.Sleep(20 * time.Millisecond)
	require.Error(t, cb.Execute(func() error { return errors.New("still down") }))

	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := New(Settings{Name: "test", FailureThreshold: 2, Cooldown: time.Hour})
	boom := errors.New("boom")

	require.Error(t, cb.Execute(func() error { return boom }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Error(t, cb.Execute(func() error { return boom }))

	// One failure after a success stays below the threshold.
	assert.NoError(t, cb.Execute(func() error { return nil }))
}
