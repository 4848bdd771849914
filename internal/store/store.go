package store

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/earth-sentinel/sentinel-dash/internal/domain/entity"
)

// Store holds the current sync snapshot. Each field is overwritten
// independently and atomically; readers may observe different fields at
// different recency. Writes against a closed store are no-ops, which lets
// in-flight fetches drain harmlessly after teardown.
type Store struct {
	mu sync.RWMutex

	clock    clockwork.Clock
	snapshot entity.SyncSnapshot
	subs     []chan struct{}
	closed   bool
}

func New(clock clockwork.Clock) *Store {
	return &Store{
		clock: clock,
		snapshot: entity.SyncSnapshot{
			Health: map[entity.Field]entity.FieldHealth{},
		},
	}
}

// Snapshot returns the last known good value per field. Slices and maps in
// the snapshot are treated as immutable once applied; callers must not
// mutate them.
func (s *Store) Snapshot() entity.SyncSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret := s.snapshot
	ret.Health = make(map[entity.Field]entity.FieldHealth, len(s.snapshot.Health))

	for field, health := range s.snapshot.Health {
		ret.Health[field] = health
	}

	return ret
}

// ApplyAssessments overwrites the risk assessment sequence (newest last).
func (s *Store) ApplyAssessments(assessments []entity.RiskAssessment) {
	s.apply(entity.FieldAssessments, func() {
		s.snapshot.Assessments = assessments
	})
}

// ApplyContracts overwrites the contract set.
func (s *Store) ApplyContracts(contracts []entity.Contract) {
	s.apply(entity.FieldContracts, func() {
		s.snapshot.Contracts = contracts
	})
}

// ApplyStats overwrites the dispatch system aggregate.
func (s *Store) ApplyStats(stats entity.SystemStats) {
	s.apply(entity.FieldStats, func() {
		s.snapshot.Stats = stats
	})
}

// SetFieldError records a failed fetch for one field. The field value
// itself keeps its previous, stale content.
func (s *Store) SetFieldError(field entity.Field, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	health := s.snapshot.Health[field]
	health.LastError = err.Error()
	health.LastErrorAt = s.clock.Now().UTC()
	s.snapshot.Health[field] = health
}

// Subscribe returns a channel receiving a notification after every
// applied field update. Notifications are coalesced, never blocking.
func (s *Store) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{}, 1)
	s.subs = append(s.subs, ch)

	return ch
}

// Close tears the store down. Every later write is dropped.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true

	for _, ch := range s.subs {
		close(ch)
	}

	s.subs = nil
}

func (s *Store) apply(field entity.Field, overwrite func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	overwrite()

	now := s.clock.Now().UTC()
	s.snapshot.LastUpdated = now

	health := s.snapshot.Health[field]
	health.LastSuccess = now
	health.LastError = ""
	health.LastErrorAt = time.Time{}
	s.snapshot.Health[field] = health

	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
