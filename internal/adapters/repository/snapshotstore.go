package repository

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/innings/internal/domain/model"
	"github.com/okian/innings/pkg/metrics"
)

const defaultHistorySize = 64

// SnapshotStore publishes immutable match states through an atomic pointer.
// Readers never take a lock; the mutex only orders writers and guards the
// history ring.
type SnapshotStore struct {
	current atomic.Pointer[Versioned]

	mu          sync.Mutex
	history     []*Versioned
	historySize int
	closed      bool
}

var _ Store = (*SnapshotStore)(nil)

// NewSnapshotStore creates a store whose version 1 is seed.
func NewSnapshotStore(seed model.MatchState, opts ...Option) *SnapshotStore {
	s := &SnapshotStore{historySize: defaultHistorySize}
	for _, opt := range opts {
		opt(s)
	}

	v := &Versioned{Version: 1, State: seed.Clone()}
	s.current.Store(v)
	s.history = append(make([]*Versioned, 0, s.historySize), v)
	record(v)
	return s
}

// Current returns the latest snapshot.
func (s *SnapshotStore) Current(_ context.Context) Versioned {
	return *s.current.Load()
}

// Publish stores next as the new current snapshot.
func (s *SnapshotStore) Publish(_ context.Context, next model.MatchState) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	v := &Versioned{Version: s.current.Load().Version + 1, State: next}
	s.current.Store(v)

	if len(s.history) == s.historySize {
		copy(s.history, s.history[1:])
		s.history = s.history[:len(s.history)-1]
	}
	s.history = append(s.history, v)

	record(v)
	return v.Version, nil
}

// At returns a snapshot still held in the history.
func (s *SnapshotStore) At(_ context.Context, version uint64) (Versioned, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return Versioned{}, ErrNotFound
	}
	first := s.history[0].Version
	if version < first || version >= first+uint64(len(s.history)) {
		return Versioned{}, ErrNotFound
	}
	return *s.history[version-first], nil
}

// Close rejects further publishes. Reads keep working.
func (s *SnapshotStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func record(v *Versioned) {
	metrics.UpdateMatchState(v.Version, v.State.TotalRuns, v.State.WicketsLost, v.State.OversPlayed, v.State.PDraw)
}
