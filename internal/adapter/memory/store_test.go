package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltbridge/moltwatch/internal/domain"
)

func TestStateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(60, time.Hour)

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.History)
	assert.Equal(t, 60, state.Budget.MaxCalls)
	assert.Equal(t, time.Hour, state.Budget.WindowDuration)

	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	state.History["sig-1"] = now
	state.Budget.CallsMade = 7
	state.Budget.WindowStart = now
	require.NoError(t, store.Save(ctx, state))

	reloaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.History, reloaded.History)
	assert.Equal(t, state.Budget, reloaded.Budget)
}

func TestStateStoreLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(10, time.Hour)

	first, err := store.Load(ctx)
	require.NoError(t, err)
	first.History["mutated"] = time.Now()

	second, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.History)
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	_, err := store.LoadLatest(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSnapshot)

	older := domain.NewSnapshot(domain.WindowCurrent, time.Now().Add(-time.Hour), []domain.Record{
		{ID: "p1", Body: "older snapshot record"},
	})
	newer := domain.NewSnapshot(domain.WindowCurrent, time.Now(), []domain.Record{
		{ID: "p2", Body: "newer snapshot record"},
	})
	require.NoError(t, store.SaveSnapshot(ctx, older))
	require.NoError(t, store.SaveSnapshot(ctx, newer))

	latest, err := store.LoadLatest(ctx)
	require.NoError(t, err)
	require.Len(t, latest.Records, 1)
	assert.Equal(t, "p2", latest.Records[0].ID)
}
