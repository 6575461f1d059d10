package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barquery/internal/common/config"
	stderrors "barquery/internal/common/errors"
)

func TestRateGateRejectsAtCeiling(t *testing.T) {
	gate := NewRateGate(config.RateLimitConfig{RequestsPerMinute: 50, TokensPerMinute: 100000})

	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)
	gate.SetClock(func() time.Time { return now })

	for i := 0; i < 50; i++ {
		require.NoError(t, gate.Allow(), "call %d should pass", i)
		gate.Record(100)
	}

	err := gate.Allow()
	require.Error(t, err)
	assert.True(t, errors.Is(err, stderrors.ErrRateLimitExceeded))
	assert.True(t, stderrors.IsRetryable(err))
}

func TestRateGateWindowSlides(t *testing.T) {
	gate := NewRateGate(config.RateLimitConfig{RequestsPerMinute: 2, TokensPerMinute: 100000})

	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)
	gate.SetClock(func() time.Time { return now })

	require.NoError(t, gate.Allow())
	gate.Record(10)
	require.NoError(t, gate.Allow())
	gate.Record(10)
	require.Error(t, gate.Allow())

	// 61 seconds later both entries left the window.
	now = now.Add(61 * time.Second)
	require.NoError(t, gate.Allow())

	requests, tokens := gate.Usage()
	assert.Equal(t, 0, requests)
	assert.Equal(t, 0, tokens)
}

func TestRateGateTokenCeilingIsAdvisory(t *testing.T) {
	gate := NewRateGate(config.RateLimitConfig{RequestsPerMinute: 10, TokensPerMinute: 100})

	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)
	gate.SetClock(func() time.Time { return now })

	require.NoError(t, gate.Allow())
	gate.Record(5000)

	// Far past the token ceiling, still admitted: only the request count
	// gates calls.
	assert.NoError(t, gate.Allow())

	requests, tokens := gate.Usage()
	assert.Equal(t, 1, requests)
	assert.Equal(t, 5000, tokens)
}

func TestRateGateUsageCountsOnlyRecordedCalls(t *testing.T) {
	gate := NewRateGate(config.RateLimitConfig{RequestsPerMinute: 10, TokensPerMinute: 100000})

	require.NoError(t, gate.Allow())
	// The call was admitted but never completed; nothing was recorded.

	requests, tokens := gate.Usage()
	assert.Equal(t, 0, requests)
	assert.Equal(t, 0, tokens)
}
