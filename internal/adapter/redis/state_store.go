package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/moltbridge/moltwatch/internal/domain"
)

const (
	historyKey = "moltwatch:engagement:history"
	budgetKey  = "moltwatch:engagement:budget"

	budgetFieldWindowStart = "window_start_ms"
	budgetFieldCallsMade   = "calls_made"
)

// StateStore round-trips the engagement state through Redis. Signatures are
// a hash of fingerprint to recorded-at millis; the budget keeps only its
// counters, since the limits come from configuration.
type StateStore struct {
	rdb      *redis.Client
	maxCalls int
	window   time.Duration
}

// NewStateStore builds a StateStore with the configured budget limits.
func NewStateStore(client *Client, maxCalls int, window time.Duration) *StateStore {
	return &StateStore{rdb: client.rdb, maxCalls: maxCalls, window: window}
}

// Load reads the persisted state. Missing keys yield an empty state with
// the configured limits, so first runs need no seeding.
func (s *StateStore) Load(ctx context.Context) (domain.EngagementState, error) {
	state := domain.NewEngagementState(s.maxCalls, s.window)

	historyFields, err := s.rdb.HGetAll(ctx, historyKey).Result()
	if err != nil {
		return domain.EngagementState{}, fmt.Errorf("load signature history: %w", err)
	}
	for signature, recordedAtMs := range historyFields {
		ms, err := strconv.ParseInt(recordedAtMs, 10, 64)
		if err != nil {
			// Unparseable entries are kept at the zero time so retention
			// pruning drops them on the next pass.
			state.History[signature] = time.Time{}
			continue
		}
		state.History[signature] = time.UnixMilli(ms).UTC()
	}

	budgetFields, err := s.rdb.HGetAll(ctx, budgetKey).Result()
	if err != nil {
		return domain.EngagementState{}, fmt.Errorf("load rate budget: %w", err)
	}
	if raw, ok := budgetFields[budgetFieldWindowStart]; ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && ms > 0 {
			state.Budget.WindowStart = time.UnixMilli(ms).UTC()
		}
	}
	if raw, ok := budgetFields[budgetFieldCallsMade]; ok {
		if calls, err := strconv.Atoi(raw); err == nil {
			state.Budget.CallsMade = calls
		}
	}

	return state, nil
}

// Save replaces the persisted state in one transactional pipeline, so a
// failed write never leaves history and budget out of sync.
func (s *StateStore) Save(ctx context.Context, state domain.EngagementState) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, historyKey, budgetKey)

	if len(state.History) > 0 {
		fields := make(map[string]interface{}, len(state.History))
		for signature, recordedAt := range state.History {
			fields[signature] = strconv.FormatInt(recordedAt.UnixMilli(), 10)
		}
		pipe.HSet(ctx, historyKey, fields)
	}

	windowStartMs := int64(0)
	if !state.Budget.WindowStart.IsZero() {
		windowStartMs = state.Budget.WindowStart.UnixMilli()
	}
	pipe.HSet(ctx, budgetKey, map[string]interface{}{
		budgetFieldWindowStart: strconv.FormatInt(windowStartMs, 10),
		budgetFieldCallsMade:   strconv.Itoa(state.Budget.CallsMade),
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save engagement state: %w", err)
	}
	return nil
}
