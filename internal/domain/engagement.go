package domain

import "time"

// Signature is a fingerprint of normalized outbound text. RecordedAt bounds
// history retention; entries are never rewritten once stored.
type Signature struct {
	Value      string
	RecordedAt time.Time
}

// RateBudget is a fixed-window call budget. The caller supplies the current
// time on every acquire; there is no hidden clock.
type RateBudget struct {
	WindowStart    time.Time
	CallsMade      int
	MaxCalls       int
	WindowDuration time.Duration
}

// Expired reports whether the window has elapsed at the given instant.
func (b RateBudget) Expired(now time.Time) bool {
	return !now.Before(b.WindowStart.Add(b.WindowDuration))
}

// EngagementState is the process-wide state that survives across runs:
// the dedup signature history and the outbound rate budget. The guard owns
// History exclusively.
type EngagementState struct {
	History map[string]time.Time
	Budget  RateBudget
}

// NewEngagementState returns an empty state with the given budget limits.
func NewEngagementState(maxCalls int, window time.Duration) EngagementState {
	return EngagementState{
		History: make(map[string]time.Time),
		Budget: RateBudget{
			MaxCalls:       maxCalls,
			WindowDuration: window,
		},
	}
}

// Clone returns a deep copy. The engine mutates only a working copy so an
// abandoned run never leaks partial updates into persisted state.
func (s EngagementState) Clone() EngagementState {
	history := make(map[string]time.Time, len(s.History))
	for sig, at := range s.History {
		history[sig] = at
	}
	return EngagementState{History: history, Budget: s.Budget}
}

// Prune drops history entries older than the retention period. Safe to skip:
// stale entries only cause extra suppressions, never double-posting.
func (s *EngagementState) Prune(now time.Time, retention time.Duration) int {
	if retention <= 0 {
		return 0
	}
	dropped := 0
	cutoff := now.Add(-retention)
	for sig, at := range s.History {
		if at.Before(cutoff) {
			delete(s.History, sig)
			dropped++
		}
	}
	return dropped
}
