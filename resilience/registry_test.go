package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryReturnsStableInstances(t *testing.T) {
	reg := NewRegistry(BreakerConfig{FailureThreshold: 2}, nil)

	a := reg.Get("weather")
	b := reg.Get("weather")
	c := reg.Get("calendar")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestRegistryStatePersistsAcrossGets(t *testing.T) {
	reg := NewRegistry(BreakerConfig{FailureThreshold: 1}, nil)

	_ = reg.Get("weather").Execute(context.Background(), func(ctx context.Context) error { return errBoom })

	assert.Equal(t, StateOpen, reg.Get("weather").State())
	assert.Equal(t, StateClosed, reg.Get("calendar").State())
}

func TestRegistryResetAll(t *testing.T) {
	reg := NewRegistry(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour}, nil)

	_ = reg.Get("weather").Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	_ = reg.Get("calendar").Execute(context.Background(), func(ctx context.Context) error { return errBoom })

	reg.ResetAll()

	assert.Equal(t, StateClosed, reg.Get("weather").State())
	assert.Equal(t, StateClosed, reg.Get("calendar").State())
}

func TestRegistryStats(t *testing.T) {
	reg := NewRegistry(BreakerConfig{FailureThreshold: 2}, nil)

	_ = reg.Get("weather").Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	reg.Get("calendar")

	stats := reg.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats["weather"].FailureCount)
	assert.Equal(t, StateClosed, stats["weather"].State)
	assert.Equal(t, 0, stats["calendar"].FailureCount)
}

func TestRegistryRemove(t *testing.T) {
	reg := NewRegistry(BreakerConfig{FailureThreshold: 1}, nil)

	_ = reg.Get("weather").Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	reg.Remove("weather")

	assert.Equal(t, StateClosed, reg.Get("weather").State())
}
