// Package persistence provides the durable store for measurement runs and
// samples. It decouples the orchestrator from the concrete storage backend:
// a SQL-backed store for production use, an in-memory store for tests, and
// a JSON artifact writer that mirrors a run's full result payload to disk.
package persistence

import (
	"context"

	"github.com/AltairaLabs/beliefbench/types"
)

// Store persists run aggregates and samples. Implementations must make
// UpsertRun idempotent per run_id and UpsertSample idempotent per cache_key,
// matching the content-addressed identities the measurement core computes
// before dispatching any provider work.
type Store interface {
	// UpsertRun writes or replaces the single mutable row for run.RunID.
	UpsertRun(ctx context.Context, run types.RunAggregate) error

	// GetRun returns the current row for runID, or ok=false if absent.
	GetRun(ctx context.Context, runID string) (run types.RunAggregate, ok bool, err error)

	// UpsertSample inserts a sample row keyed by its CacheKey, or updates the
	// row's RunID linkage if the cache key was already present from a prior
	// run (samples are immutable apart from this run_id association).
	UpsertSample(ctx context.Context, sample types.Sample) error

	// GetSample returns the sample stored under cacheKey, or ok=false on a miss.
	GetSample(ctx context.Context, cacheKey string) (sample types.Sample, ok bool, err error)

	// SamplesByRun returns every sample currently associated with runID.
	SamplesByRun(ctx context.Context, runID string) ([]types.Sample, error)

	// Close releases any resources (open file handles, connections) held by the store.
	Close() error
}

// ArtifactWriter mirrors a completed run's full result payload to an
// external sink (a JSON file on disk, typically) for diagnostics and offline
// inspection. Writing an artifact is best-effort: the orchestrator does not
// fail a run because the artifact write failed.
type ArtifactWriter interface {
	WriteArtifact(ctx context.Context, result types.RunResult) error
}
