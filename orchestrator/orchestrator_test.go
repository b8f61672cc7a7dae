package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/beliefbench/cache"
	"github.com/AltairaLabs/beliefbench/errs"
	"github.com/AltairaLabs/beliefbench/persistence/memory"
	"github.com/AltairaLabs/beliefbench/promptbank"
	"github.com/AltairaLabs/beliefbench/providers"
	"github.com/AltairaLabs/beliefbench/types"
)

func testBank() *promptbank.Bank {
	return &promptbank.Bank{
		Version:            "v1",
		SystemText:         "You are a careful fact checker.",
		SchemaInstructions: ` Respond with JSON {"prob_true": number}.`,
		UserTemplate:       "Claim: {{claim}}\n{{paraphrase}}",
		Paraphrases: []string{
			"Is this true?",
			"Evaluate the claim.",
			"How confident are you?",
			"Rate your belief.",
		},
	}
}

func testLoader() promptbank.Loader {
	return promptbank.NewStaticLoader(testBank())
}

// scriptedProvider returns a fixed prob_true for every call, or an error
// when failOnCall is non-zero and matches the current call count.
type scriptedProvider struct {
	mu       sync.Mutex
	calls    int
	probTrue float64
	failEach int // when > 0, every failEach-th call fails
}

func (p *scriptedProvider) ID() string { return "scripted" }

func (p *scriptedProvider) ScoreClaim(_ context.Context, _ providers.ScoreRequest) (providers.ScoreResponse, error) {
	p.mu.Lock()
	p.calls++
	call := p.calls
	p.mu.Unlock()

	if p.failEach > 0 && call%p.failEach == 0 {
		return providers.ScoreResponse{}, errors.New("transport exhausted")
	}

	payload, _ := json.Marshal(map[string]float64{"prob_true": p.probTrue})
	return providers.ScoreResponse{RawJSON: payload, ProviderModelID: "scripted-model", ResponseID: "resp"}, nil
}

func (p *scriptedProvider) Close() error { return nil }

func newOrchestrator(t *testing.T, provider providers.Provider) *Orchestrator {
	t.Helper()
	return New(testLoader(), provider, cache.NewMemoryCache(), memory.New(), nil, 4)
}

func baseConfig() types.RunConfig {
	return types.RunConfig{
		Claim:           "paris is the capital of france",
		Model:           "scripted-model",
		PromptVersion:   "v1",
		K:               8,
		R:               2,
		T:               4,
		B:               200,
		MaxOutputTokens: 64,
	}
}

func TestOrchestrator_Run_ProducesAggregate(t *testing.T) {
	o := newOrchestrator(t, &scriptedProvider{probTrue: 0.9})
	result, err := o.Run(context.Background(), baseConfig())
	require.NoError(t, err)

	assert.Len(t, result.Samples, 16) // K*R
	assert.Greater(t, result.Aggregates.ProbTrueRPL, 0.5)
	assert.Equal(t, 1.0, result.Aggregates.RPLComplianceRate)
	assert.NotEmpty(t, result.RunID)
	assert.NotEmpty(t, result.ExecutionID)

	stored, ok, err := o.Store.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result.RunID, stored.RunID)
}

func TestOrchestrator_Run_IsDeterministicAcrossInvocations(t *testing.T) {
	cfg := baseConfig()

	o1 := newOrchestrator(t, &scriptedProvider{probTrue: 0.8})
	r1, err := o1.Run(context.Background(), cfg)
	require.NoError(t, err)

	o2 := newOrchestrator(t, &scriptedProvider{probTrue: 0.8})
	r2, err := o2.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, r1.RunID, r2.RunID)
	assert.Equal(t, r1.Aggregates.ProbTrueRPL, r2.Aggregates.ProbTrueRPL)
	assert.Equal(t, r1.Aggregation.BootstrapSeed, r2.Aggregation.BootstrapSeed)
	assert.NotEqual(t, r1.ExecutionID, r2.ExecutionID, "execution id is fresh per invocation")
}

func TestOrchestrator_Run_ReusesCacheOnSecondRun(t *testing.T) {
	provider := &scriptedProvider{probTrue: 0.7}
	sharedCache := cache.NewMemoryCache()
	store := memory.New()
	cfg := baseConfig()

	o1 := New(testLoader(), provider, sharedCache, store, nil, 4)
	_, err := o1.Run(context.Background(), cfg)
	require.NoError(t, err)
	firstCalls := provider.calls

	o2 := New(testLoader(), provider, sharedCache, store, nil, 4)
	result, err := o2.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, firstCalls, provider.calls, "second run should hit cache for every sample")
	assert.Equal(t, 1.0, result.Aggregates.CacheHitRate)
}

func TestOrchestrator_Run_NoCacheForcesFreshCalls(t *testing.T) {
	provider := &scriptedProvider{probTrue: 0.7}
	sharedCache := cache.NewMemoryCache()
	store := memory.New()
	cfg := baseConfig()

	o1 := New(testLoader(), provider, sharedCache, store, nil, 4)
	_, err := o1.Run(context.Background(), cfg)
	require.NoError(t, err)
	firstCalls := provider.calls

	cfg.NoCache = true
	o2 := New(testLoader(), provider, sharedCache, store, nil, 4)
	result, err := o2.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, firstCalls*2, provider.calls)
	assert.Equal(t, 0.0, result.Aggregates.CacheHitRate)
}

func TestOrchestrator_Run_TransportFailuresDoNotAbort(t *testing.T) {
	provider := &scriptedProvider{probTrue: 0.85, failEach: 3}
	o := newOrchestrator(t, provider)

	result, err := o.Run(context.Background(), baseConfig())
	require.NoError(t, err)
	assert.Less(t, result.Aggregates.RPLComplianceRate, 1.0)

	nonCompliant := 0
	for _, s := range result.Samples {
		if !s.JSONValid {
			nonCompliant++
		}
	}
	assert.Greater(t, nonCompliant, 0)
}

func TestOrchestrator_Run_AllNonCompliantFails(t *testing.T) {
	badProvider := &scriptedProvider{probTrue: 5.0} // out of (0,1), always non-compliant
	o := newOrchestrator(t, badProvider)

	_, err := o.Run(context.Background(), baseConfig())
	assert.ErrorIs(t, err, errs.ErrNoValidSamples)
}

func TestOrchestrator_Run_SeedOverrideIsUsedAsIs(t *testing.T) {
	cfg := baseConfig()
	seed := int64(123456789)
	cfg.Seed = &seed

	o := newOrchestrator(t, &scriptedProvider{probTrue: 0.6})
	result, err := o.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, seed, result.Aggregation.BootstrapSeed)
}

func TestOrchestrator_Run_RejectsInvalidConfig(t *testing.T) {
	o := newOrchestrator(t, &scriptedProvider{probTrue: 0.6})

	cfg := baseConfig()
	cfg.R = 0
	_, err := o.Run(context.Background(), cfg)
	assert.Error(t, err)
}
