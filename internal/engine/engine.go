// Package engine wires the analyzers and the engagement gate into one
// synchronous run per scheduled invocation.
//
// The engine owns no I/O: collaborators hand it in-memory records and
// persist the state it returns. A run mutates only a working copy of the
// engagement state, so an abandoned run never leaks partial history or
// budget updates into storage.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/moltbridge/moltwatch/internal/domain"
	"github.com/moltbridge/moltwatch/internal/guard"
	"github.com/moltbridge/moltwatch/internal/ratelimit"
	"github.com/moltbridge/moltwatch/internal/sentiment"
	"github.com/moltbridge/moltwatch/internal/trend"
)

const DefaultHistoryRetention = 30 * 24 * time.Hour

// ReasonRateLimited marks candidates denied by the call budget rather than
// the dedup guard.
const ReasonRateLimited = "rate_limited"

// Metrics is the engine's observability hook. Implemented by the
// prometheus adapter; a no-op is used when nothing is wired.
type Metrics interface {
	ObserveRun(duration time.Duration, analyzed, skipped int)
	CountDecision(result string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRun(time.Duration, int, int) {}
func (nopMetrics) CountDecision(string)               {}

// Outcome is the gate decision for one outbound candidate.
type Outcome struct {
	Allow      bool
	Reason     string
	RetryAfter time.Duration
	Signature  string
}

// Engine runs trend and sentiment analysis and gates outbound engagement.
type Engine struct {
	analyzer  *trend.Analyzer
	scorer    *sentiment.Scorer
	guard     *guard.Guard
	states    domain.EngagementStateStore
	snapshots domain.SnapshotStore
	clock     clockwork.Clock
	retention time.Duration
	metrics   Metrics
}

// NewEngine builds an Engine. A zero retention falls back to the default;
// a nil metrics hook disables instrumentation.
func NewEngine(
	analyzer *trend.Analyzer,
	scorer *sentiment.Scorer,
	dedupGuard *guard.Guard,
	states domain.EngagementStateStore,
	snapshots domain.SnapshotStore,
	clock clockwork.Clock,
	retention time.Duration,
	metrics Metrics,
) (*Engine, error) {
	if analyzer == nil || scorer == nil || dedupGuard == nil {
		return nil, fmt.Errorf("analyzer, scorer, and guard are required")
	}
	if states == nil || snapshots == nil {
		return nil, fmt.Errorf("state and snapshot stores are required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if retention == 0 {
		retention = DefaultHistoryRetention
	}
	if retention < 0 {
		return nil, fmt.Errorf("history retention must be positive, got %s", retention)
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Engine{
		analyzer:  analyzer,
		scorer:    scorer,
		guard:     dedupGuard,
		states:    states,
		snapshots: snapshots,
		clock:     clock,
		retention: retention,
		metrics:   metrics,
	}, nil
}

// AnalyzeRun builds the current snapshot from raw records, compares it with
// the archived previous window, and returns the combined report. The
// current snapshot is archived at the end so the next run can diff against
// it. Malformed records are skipped, never fatal.
func (e *Engine) AnalyzeRun(ctx context.Context, records []domain.Record) (domain.Report, error) {
	started := e.clock.Now()
	runID := uuid.NewString()
	log := slog.With("run_id", runID)

	current := domain.NewSnapshot(domain.WindowCurrent, started, records)
	if current.Skipped > 0 {
		log.Warn("skipped malformed or duplicate records", "skipped", current.Skipped)
	}

	previous, err := e.snapshots.LoadLatest(ctx)
	switch {
	case errors.Is(err, domain.ErrNoSnapshot):
		log.Info("no previous snapshot, first-run comparison")
		previous = nil
	case err != nil:
		return domain.Report{}, fmt.Errorf("load previous snapshot: %w", err)
	}
	if previous != nil {
		previous.Window = domain.WindowPrevious
	}

	trendReport := e.analyzer.Analyze(current, previous)
	_, sentimentSummary := e.scorer.AnalyzeSnapshot(current)

	if err := e.snapshots.SaveSnapshot(ctx, current); err != nil {
		return domain.Report{}, fmt.Errorf("archive current snapshot: %w", err)
	}

	duration := e.clock.Now().Sub(started)
	e.metrics.ObserveRun(duration, trendReport.TotalRecords, trendReport.SkippedRecords)
	log.Info("analysis run complete",
		"records", trendReport.TotalRecords,
		"keywords", len(trendReport.Keywords),
		"deltas", len(trendReport.Deltas),
		"duration", duration,
	)

	return domain.Report{
		RunID:       runID,
		GeneratedAt: started,
		Trend:       trendReport,
		Sentiment:   sentimentSummary,
	}, nil
}

// Session gates outbound candidates against a working copy of the
// engagement state. Nothing is persisted until Commit.
type Session struct {
	engine *Engine
	state  domain.EngagementState
}

// BeginSession loads the engagement state, prunes expired history, and
// returns a session over a private copy.
func (e *Engine) BeginSession(ctx context.Context) (*Session, error) {
	state, err := e.states.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load engagement state: %w", err)
	}
	working := state.Clone()
	if dropped := working.Prune(e.clock.Now(), e.retention); dropped > 0 {
		slog.Debug("pruned expired signatures", "dropped", dropped)
	}
	return &Session{engine: e, state: working}, nil
}

// Gate routes a candidate through the dedup guard and then the rate
// limiter. Only guard-approved candidates consume budget. The caller must
// honor RetryAfter before re-attempting a rate-limited candidate.
func (s *Session) Gate(candidate string) Outcome {
	decision := s.engine.guard.MayPublish(candidate, s.state)
	if !decision.Allow {
		s.engine.metrics.CountDecision(decision.Reason)
		return Outcome{Reason: decision.Reason, Signature: decision.Signature}
	}

	acquire, budget := ratelimit.TryAcquire(s.state.Budget, s.engine.clock.Now())
	s.state.Budget = budget
	if !acquire.Allowed {
		s.engine.metrics.CountDecision(ReasonRateLimited)
		return Outcome{
			Reason:     ReasonRateLimited,
			RetryAfter: acquire.RetryAfter,
			Signature:  decision.Signature,
		}
	}

	s.engine.metrics.CountDecision("allowed")
	return Outcome{Allow: true, Signature: decision.Signature}
}

// ConfirmPublish records a signature after the external publisher reported
// success for a gated candidate.
func (s *Session) ConfirmPublish(signature string) {
	s.engine.guard.ConfirmPublish(&s.state, signature, s.engine.clock.Now())
}

// State exposes the working state, primarily for reporting.
func (s *Session) State() domain.EngagementState {
	return s.state
}

// Commit persists the working state. Skipping Commit abandons every update
// made during the session.
func (s *Session) Commit(ctx context.Context) error {
	if err := s.engine.states.Save(ctx, s.state); err != nil {
		return fmt.Errorf("save engagement state: %w", err)
	}
	return nil
}
