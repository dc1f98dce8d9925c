// Package memory provides in-memory stores for single-process runs and
// tests. The engine is invoked once per scheduled run, so access is not
// synchronized.
package memory

import (
	"context"
	"time"

	"github.com/moltbridge/moltwatch/internal/domain"
)

// StateStore keeps the engagement state in memory.
type StateStore struct {
	state *domain.EngagementState
	init  domain.EngagementState
}

// NewStateStore creates a store whose first Load returns an empty state
// with the given budget limits.
func NewStateStore(maxCalls int, window time.Duration) *StateStore {
	return &StateStore{init: domain.NewEngagementState(maxCalls, window)}
}

func (s *StateStore) Load(_ context.Context) (domain.EngagementState, error) {
	if s.state == nil {
		return s.init.Clone(), nil
	}
	return s.state.Clone(), nil
}

func (s *StateStore) Save(_ context.Context, state domain.EngagementState) error {
	saved := state.Clone()
	s.state = &saved
	return nil
}

// SnapshotStore archives snapshots in memory, newest last.
type SnapshotStore struct {
	snapshots []domain.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) SaveSnapshot(_ context.Context, snapshot domain.Snapshot) error {
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

// LoadLatest returns the most recently archived snapshot, which becomes the
// previous window for the next run.
func (s *SnapshotStore) LoadLatest(_ context.Context) (*domain.Snapshot, error) {
	if len(s.snapshots) == 0 {
		return nil, domain.ErrNoSnapshot
	}
	latest := s.snapshots[len(s.snapshots)-1]
	return &latest, nil
}
