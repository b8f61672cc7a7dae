package persistence

import (
	"context"

	"github.com/AltairaLabs/beliefbench/types"
)

// Compile-time interface checks exercised by the memory and json package tests.
var (
	_ Store          = (*mockStore)(nil)
	_ ArtifactWriter = (*mockArtifactWriter)(nil)
)

type mockStore struct{}

func (m *mockStore) UpsertRun(_ context.Context, _ types.RunAggregate) error { return nil }
func (m *mockStore) GetRun(_ context.Context, _ string) (types.RunAggregate, bool, error) {
	return types.RunAggregate{}, false, nil
}
func (m *mockStore) UpsertSample(_ context.Context, _ types.Sample) error { return nil }
func (m *mockStore) GetSample(_ context.Context, _ string) (types.Sample, bool, error) {
	return types.Sample{}, false, nil
}
func (m *mockStore) SamplesByRun(_ context.Context, _ string) ([]types.Sample, error) {
	return nil, nil
}
func (m *mockStore) Close() error { return nil }

type mockArtifactWriter struct{}

func (m *mockArtifactWriter) WriteArtifact(_ context.Context, _ types.RunResult) error { return nil }
