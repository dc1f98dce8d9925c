package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltbridge/moltwatch/internal/domain"
)

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(domain.RateBudget{MaxCalls: 0, WindowDuration: time.Hour}))
	assert.Error(t, Validate(domain.RateBudget{MaxCalls: 10, WindowDuration: 0}))
	assert.NoError(t, Validate(domain.RateBudget{MaxCalls: 10, WindowDuration: time.Hour}))
}

func TestTryAcquireAllowsWithinBudget(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	budget := domain.RateBudget{MaxCalls: 3, WindowDuration: time.Hour}

	for i := 1; i <= 3; i++ {
		var decision Decision
		decision, budget = TryAcquire(budget, now)
		assert.True(t, decision.Allowed, "call %d", i)
		assert.Equal(t, i, budget.CallsMade)
	}

	decision, budget := TryAcquire(budget, now)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 3, budget.CallsMade)
}

func TestTryAcquireDenyReportsRetryAfter(t *testing.T) {
	windowStart := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	budget := domain.RateBudget{
		WindowStart:    windowStart,
		CallsMade:      60,
		MaxCalls:       60,
		WindowDuration: time.Hour,
	}

	decision, updated := TryAcquire(budget, windowStart.Add(30*time.Minute))
	assert.False(t, decision.Allowed)
	assert.Equal(t, 30*time.Minute, decision.RetryAfter)
	assert.Equal(t, 60, updated.CallsMade)
}

func TestTryAcquireResetsElapsedWindow(t *testing.T) {
	windowStart := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	budget := domain.RateBudget{
		WindowStart:    windowStart,
		CallsMade:      60,
		MaxCalls:       60,
		WindowDuration: time.Hour,
	}

	now := windowStart.Add(61 * time.Minute)
	decision, updated := TryAcquire(budget, now)
	require.True(t, decision.Allowed)
	assert.Equal(t, now, updated.WindowStart)
	assert.Equal(t, 1, updated.CallsMade)
}

func TestTryAcquireInitializesZeroWindow(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	budget := domain.RateBudget{MaxCalls: 1, WindowDuration: time.Hour}

	decision, updated := TryAcquire(budget, now)
	require.True(t, decision.Allowed)
	assert.Equal(t, now, updated.WindowStart)

	decision, _ = TryAcquire(updated, now.Add(10*time.Minute))
	assert.False(t, decision.Allowed)
	assert.Equal(t, 50*time.Minute, decision.RetryAfter)
}

func TestTryAcquireDoesNotMutateInput(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	budget := domain.RateBudget{MaxCalls: 5, WindowDuration: time.Hour, WindowStart: now}

	_, _ = TryAcquire(budget, now)
	assert.Equal(t, 0, budget.CallsMade)
}
