package beliefbench

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/beliefbench/types"
)

func TestRunner_Run_Mock(t *testing.T) {
	r, err := NewRunner(Settings{})
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	cfg := types.RunConfig{
		Claim:           "the eiffel tower is in paris",
		Model:           "mock",
		PromptVersion:   "v1-default",
		K:               6,
		R:               2,
		T:               3,
		B:               200,
		MaxOutputTokens: 64,
		Mock:            true,
	}

	result, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, result.Samples, 12)
	assert.NotEmpty(t, result.RunID)
}

func TestRunner_Run_ReusesProviderAcrossCalls(t *testing.T) {
	r, err := NewRunner(Settings{})
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	cfg := types.RunConfig{
		Claim: "water boils at 100 degrees celsius at sea level", Model: "mock",
		PromptVersion: "v1-default", K: 4, R: 1, T: 2, B: 100, MaxOutputTokens: 64, Mock: true,
	}

	_, err = r.Run(context.Background(), cfg)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"mock"}, r.registry.List())
}

func TestSplitModel(t *testing.T) {
	typ, model := splitModel("openai:gpt-4o")
	assert.Equal(t, "openai", typ)
	assert.Equal(t, "gpt-4o", model)

	typ, model = splitModel("mock")
	assert.Equal(t, "mock", typ)
	assert.Equal(t, "mock", model)
}
