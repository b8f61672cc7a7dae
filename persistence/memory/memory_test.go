package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/beliefbench/types"
)

func TestStore_UpsertAndGetRun(t *testing.T) {
	s := New()
	ctx := context.Background()

	run := types.RunAggregate{RunID: "run-1", Claim: "the sky is blue", Model: "mock"}
	require.NoError(t, s.UpsertRun(ctx, run))

	got, ok, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "the sky is blue", got.Claim)
}

func TestStore_GetRun_NotFound(t *testing.T) {
	s := New()
	_, ok, err := s.GetRun(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_UpsertRun_Overwrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.UpsertRun(ctx, types.RunAggregate{RunID: "run-1", ProbTrueRPL: 0.1}))
	require.NoError(t, s.UpsertRun(ctx, types.RunAggregate{RunID: "run-1", ProbTrueRPL: 0.9}))

	got, ok, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.9, got.ProbTrueRPL)
}

func TestStore_UpsertAndGetSample(t *testing.T) {
	s := New()
	ctx := context.Background()

	sample := types.Sample{CacheKey: "key-1", RunID: "run-1", CreatedAt: time.Now()}
	require.NoError(t, s.UpsertSample(ctx, sample))

	got, ok, err := s.GetSample(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-1", got.RunID)
}

func TestStore_SamplesByRun(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.UpsertSample(ctx, types.Sample{CacheKey: "a", RunID: "run-1"}))
	require.NoError(t, s.UpsertSample(ctx, types.Sample{CacheKey: "b", RunID: "run-1"}))
	require.NoError(t, s.UpsertSample(ctx, types.Sample{CacheKey: "c", RunID: "run-2"}))

	samples, err := s.SamplesByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestStore_SampleReusedAcrossRuns(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.UpsertSample(ctx, types.Sample{CacheKey: "shared", RunID: "run-1"}))
	require.NoError(t, s.UpsertSample(ctx, types.Sample{CacheKey: "shared", RunID: "run-2"}))

	got, ok, err := s.GetSample(ctx, "shared")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-2", got.RunID, "reused sample should link to the most recent run")
}

func TestStore_Close(t *testing.T) {
	s := New()
	assert.NoError(t, s.Close())
}
