package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These mirror the end-to-end scenarios in spec.md §8: a spacing-2s
// callable that started at 2 and finished at 3 (or 5 for the aligned
// case).

func TestLastFinishedScenario(t *testing.T) {
	reg := BuiltIn()
	s, err := reg.Lookup("last_finished")
	require.NoError(t, err)

	next := s.Post(2*time.Second, 2, 3, MetricsSnapshot{})
	assert.Equal(t, 5.0, next)
}

func TestLastStartedScenario(t *testing.T) {
	reg := BuiltIn()
	s, err := reg.Lookup("last_started")
	require.NoError(t, err)

	next := s.Post(2*time.Second, 2, 3, MetricsSnapshot{})
	assert.Equal(t, 4.0, next)
}

func TestAlignedLastFinishedScenario(t *testing.T) {
	reg := BuiltIn()
	s, err := reg.Lookup("aligned_last_finished")
	require.NoError(t, err)

	next := s.Post(2*time.Second, 2, 5, MetricsSnapshot{})
	assert.Equal(t, 6.0, next)
}

func TestInitialStrategyDefaultsToNowPlusSpacing(t *testing.T) {
	reg := BuiltIn()
	s, err := reg.Lookup("last_started")
	require.NoError(t, err)

	assert.Equal(t, 10.0, s.Initial(5*time.Second, 5))
}

func TestUnknownStrategyIsConfigError(t *testing.T) {
	reg := BuiltIn()
	_, err := reg.Lookup("does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scheduling strategy")
}

func TestJitterIsNonNegativeAndNeverBeforeBase(t *testing.T) {
	// With a fixed source returning 1.0 (the maximum), jitter should be
	// exactly spacing*maxPercentJitter above the base strategy.
	reg := BuiltInWithSource(NewFixedSource(1.0))
	s, err := reg.Lookup("last_finished_jitter")
	require.NoError(t, err)

	next := s.Post(10*time.Second, 0, 10, MetricsSnapshot{})
	// base = 10 + 10 = 20, jitter = 10*0.05*1.0 = 0.5
	assert.InDelta(t, 20.5, next, 1e-9)
	assert.GreaterOrEqual(t, next, 20.0)
}

func TestJitterWithZeroSourceMatchesBase(t *testing.T) {
	reg := BuiltInWithSource(NewFixedSource(0.0))
	s, err := reg.Lookup("last_started_jitter")
	require.NoError(t, err)

	base, err := reg.Lookup("last_started")
	require.NoError(t, err)

	next := s.Post(4*time.Second, 1, 2, MetricsSnapshot{})
	baseNext := base.Post(4*time.Second, 1, 2, MetricsSnapshot{})
	assert.Equal(t, baseNext, next)
}

func TestWithJitterRejectsOutOfRangeFraction(t *testing.T) {
	_, err := WithJitter(1.5, lastStarted, NewFixedSource(0))
	require.Error(t, err)

	_, err = WithJitter(-0.1, lastStarted, NewFixedSource(0))
	require.Error(t, err)
}
