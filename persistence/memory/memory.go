// Package memory provides an in-process Store implementation backed by maps,
// for tests and single-process runs that don't need a durable backend.
package memory

import (
	"context"
	"sync"

	"github.com/AltairaLabs/beliefbench/persistence"
	"github.com/AltairaLabs/beliefbench/types"
)

// Compile-time interface check.
var _ persistence.Store = (*Store)(nil)

// Store is a map-backed persistence.Store. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	runs    map[string]types.RunAggregate
	samples map[string]types.Sample
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		runs:    make(map[string]types.RunAggregate),
		samples: make(map[string]types.Sample),
	}
}

// UpsertRun implements persistence.Store.
func (s *Store) UpsertRun(_ context.Context, run types.RunAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunID] = run
	return nil
}

// GetRun implements persistence.Store.
func (s *Store) GetRun(_ context.Context, runID string) (types.RunAggregate, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	return run, ok, nil
}

// UpsertSample implements persistence.Store. A cache key already present
// from a prior run has its RunID linkage updated to the current run; every
// other field is content-addressed and therefore unchanged.
func (s *Store) UpsertSample(_ context.Context, sample types.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[sample.CacheKey] = sample
	return nil
}

// GetSample implements persistence.Store.
func (s *Store) GetSample(_ context.Context, cacheKey string) (types.Sample, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sample, ok := s.samples[cacheKey]
	return sample, ok, nil
}

// SamplesByRun implements persistence.Store.
func (s *Store) SamplesByRun(_ context.Context, runID string) ([]types.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Sample, 0)
	for _, sample := range s.samples {
		if sample.RunID == runID {
			out = append(out, sample)
		}
	}
	return out, nil
}

// Close implements persistence.Store. No resources to release.
func (s *Store) Close() error { return nil }
