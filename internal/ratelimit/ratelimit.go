// Package ratelimit implements a fixed-window call budget for outbound
// engagement actions.
//
// TryAcquire is a pure function of (budget, now): the caller supplies the
// current instant, so there is no hidden clock and tests drive time
// directly. Callers must honor RetryAfter before re-attempting.
package ratelimit

import (
	"fmt"
	"time"

	"github.com/moltbridge/moltwatch/internal/domain"
)

// Decision is the outcome of one acquire attempt. RetryAfter is zero when
// the call was allowed.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Validate checks budget limits at startup. Invalid limits are fatal.
func Validate(budget domain.RateBudget) error {
	if budget.MaxCalls <= 0 {
		return fmt.Errorf("max calls must be > 0, got %d", budget.MaxCalls)
	}
	if budget.WindowDuration <= 0 {
		return fmt.Errorf("window duration must be > 0, got %s", budget.WindowDuration)
	}
	return nil
}

// TryAcquire attempts to consume one call from the budget at the given
// instant and returns the updated budget. The window resets when it has
// elapsed; within a window, calls beyond MaxCalls are denied with the time
// remaining until the reset.
func TryAcquire(budget domain.RateBudget, now time.Time) (Decision, domain.RateBudget) {
	if budget.WindowStart.IsZero() || budget.Expired(now) {
		budget.WindowStart = now
		budget.CallsMade = 0
	}

	if budget.CallsMade < budget.MaxCalls {
		budget.CallsMade++
		return Decision{Allowed: true}, budget
	}

	retryAfter := budget.WindowStart.Add(budget.WindowDuration).Sub(now)
	return Decision{Allowed: false, RetryAfter: retryAfter}, budget
}
