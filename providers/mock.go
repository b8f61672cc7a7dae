package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AltairaLabs/beliefbench/types"
)

// MockProvider is a deterministic, network-free backend used when a run is
// configured with mock: true. It never calls out; it derives a prob_true
// value from a hash of the composed prompt so that repeated calls with the
// same instructions and user text always produce the same answer, letting
// the rest of the pipeline (cache, compliance filter, estimator) be
// exercised without live credentials.
type MockProvider struct {
	id    string
	model string
}

// NewMockProvider creates a mock backend reporting the given model id.
func NewMockProvider(model string) *MockProvider {
	return &MockProvider{id: "mock", model: model}
}

// ID returns the provider ID.
func (m *MockProvider) ID() string {
	return m.id
}

// ScoreClaim derives a prob_true in (0,1) from a hash of the request and
// returns it as a compliant JSON payload.
func (m *MockProvider) ScoreClaim(_ context.Context, req ScoreRequest) (ScoreResponse, error) {
	start := time.Now()

	sum := sha256.Sum256([]byte(req.Instructions + "\x00" + req.UserText))
	bits := binary.BigEndian.Uint64(sum[:8])
	// Map the top 53 bits onto (0,1), avoiding the exact endpoints.
	probTrue := float64(bits>>11) / float64(uint64(1)<<53)
	if probTrue <= 0 {
		probTrue = 1e-6
	}
	if probTrue >= 1 {
		probTrue = 1 - 1e-6
	}

	payload, err := json.Marshal(map[string]float64{"prob_true": probTrue})
	if err != nil {
		return ScoreResponse{}, fmt.Errorf("mock provider: marshal payload: %w", err)
	}

	inputTokens := len(req.Instructions)/4 + len(req.UserText)/4
	outputTokens := len(payload) / 4

	return ScoreResponse{
		RawJSON:         payload,
		ProviderModelID: m.model,
		ResponseID:      fmt.Sprintf("mock-%x", sum[:8]),
		Latency:         time.Since(start),
		Cost: types.CostInfo{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
		},
	}, nil
}

// Close is a no-op for the mock provider.
func (m *MockProvider) Close() error {
	return nil
}
