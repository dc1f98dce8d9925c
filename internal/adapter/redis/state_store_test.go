package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltbridge/moltwatch/internal/domain"
)

func newTestStore(t *testing.T) (*StateStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client, err := NewClient("redis://" + srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewStateStore(client, 60, time.Hour), srv
}

func TestLoadMissingKeysYieldsEmptyStateWithLimits(t *testing.T) {
	store, _ := newTestStore(t)

	state, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, state.History)
	assert.Equal(t, 60, state.Budget.MaxCalls)
	assert.Equal(t, time.Hour, state.Budget.WindowDuration)
	assert.True(t, state.Budget.WindowStart.IsZero())
	assert.Zero(t, state.Budget.CallsMade)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// Millisecond precision is what the encoding preserves.
	recordedA := time.Date(2026, 3, 14, 12, 0, 0, 250e6, time.UTC)
	recordedB := time.Date(2026, 3, 14, 13, 30, 0, 0, time.UTC)
	windowStart := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	state := domain.NewEngagementState(60, time.Hour)
	state.History["sig-a"] = recordedA
	state.History["sig-b"] = recordedB
	state.Budget.WindowStart = windowStart
	state.Budget.CallsMade = 17

	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	require.Len(t, loaded.History, 2)
	assert.True(t, loaded.History["sig-a"].Equal(recordedA))
	assert.True(t, loaded.History["sig-b"].Equal(recordedB))
	assert.True(t, loaded.Budget.WindowStart.Equal(windowStart))
	assert.Equal(t, 17, loaded.Budget.CallsMade)
	assert.Equal(t, 60, loaded.Budget.MaxCalls)
	assert.Equal(t, time.Hour, loaded.Budget.WindowDuration)
}

func TestSaveReplacesPreviousStateEntirely(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	stale := domain.NewEngagementState(60, time.Hour)
	stale.History["sig-old"] = now
	require.NoError(t, store.Save(ctx, stale))

	fresh := domain.NewEngagementState(60, time.Hour)
	fresh.History["sig-new"] = now
	require.NoError(t, store.Save(ctx, fresh))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, loaded.History, "sig-old", "a save must not leave stale signatures behind")
	assert.Contains(t, loaded.History, "sig-new")
}

func TestSaveZeroWindowStartStaysZero(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	state := domain.NewEngagementState(60, time.Hour)
	state.Budget.CallsMade = 3
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Budget.WindowStart.IsZero())
	assert.Equal(t, 3, loaded.Budget.CallsMade)
}

func TestLoadUnparseableHistoryEntryFallsBackToZeroTime(t *testing.T) {
	store, srv := newTestStore(t)
	srv.HSet(historyKey, "sig-corrupt", "not-a-timestamp")

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)

	recordedAt, ok := loaded.History["sig-corrupt"]
	require.True(t, ok, "corrupt entries are kept until pruned")
	assert.True(t, recordedAt.IsZero())

	// Retention pruning then clears the entry on the next session.
	dropped := loaded.Prune(time.Now(), 30*24*time.Hour)
	assert.Equal(t, 1, dropped)
	assert.NotContains(t, loaded.History, "sig-corrupt")
}

func TestLoadUnparseableBudgetFieldsAreIgnored(t *testing.T) {
	store, srv := newTestStore(t)
	srv.HSet(budgetKey, budgetFieldWindowStart, "garbage")
	srv.HSet(budgetKey, budgetFieldCallsMade, "also garbage")

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded.Budget.WindowStart.IsZero())
	assert.Zero(t, loaded.Budget.CallsMade)
}
