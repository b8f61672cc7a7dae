package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AltairaLabs/beliefbench/credentials"
	"github.com/AltairaLabs/beliefbench/errs"
	"github.com/AltairaLabs/beliefbench/providers"
	"github.com/AltairaLabs/beliefbench/types"
)

const vertexPublisher = "google"

// VertexProvider scores claims through a Gemini model hosted on Google
// Vertex AI, authenticating with an OAuth2 token instead of the public
// Gemini API's "key" query parameter.
type VertexProvider struct {
	providers.BaseProvider
	model   string
	cred    *credentials.GCPCredential
	pricing providers.Pricing
	client  *http.Client
}

// NewVertexProvider creates a Gemini-on-Vertex backend.
func NewVertexProvider(id, model string, cred *credentials.GCPCredential, pricing providers.Pricing) *VertexProvider {
	client := &http.Client{Timeout: providers.DefaultProviderTimeout, Transport: providers.NewPooledTransport()}
	return &VertexProvider{
		BaseProvider: providers.NewBaseProvider(id, client),
		model:        model,
		cred:         cred,
		pricing:      pricing,
		client:       client,
	}
}

// ScoreClaim sends one generateContent request to Vertex's publisher-model
// endpoint, authorizing with a bearer token from Application Default
// Credentials instead of an API key.
func (p *VertexProvider) ScoreClaim(ctx context.Context, req providers.ScoreRequest) (providers.ScoreResponse, error) {
	start := time.Now()

	body := generateRequest{
		Contents:          []content{{Role: "user", Parts: []part{{Text: req.UserText}}}},
		SystemInstruction: &content{Parts: []part{{Text: req.Instructions}}},
		GenerationConfig: generationConfig{
			MaxOutputTokens:  req.MaxOutputTokens,
			ResponseMimeType: "application/json",
			Seed:             req.Seed,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("gemini vertex: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", credentials.VertexEndpoint(p.cred.Project(), p.cred.Region(), vertexPublisher), p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("gemini vertex: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if err := p.cred.Apply(ctx, httpReq); err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: apply vertex token: %w", errs.ErrProviderUnavailable, err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if err := providers.CheckHTTPError(resp, url); err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: read response: %w", errs.ErrProviderUnavailable, err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: decode response: %w", errs.ErrProviderUnavailable, err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return providers.ScoreResponse{}, fmt.Errorf("%w: no candidates in response", errs.ErrProviderUnavailable)
	}

	var cost types.CostInfo
	if decoded.UsageMetadata != nil {
		cost = types.CostInfo{
			InputTokens:  decoded.UsageMetadata.PromptTokenCount,
			OutputTokens: decoded.UsageMetadata.CandidatesTokenCount,
			TotalCostUSD: float64(decoded.UsageMetadata.PromptTokenCount)/1000*p.pricing.InputCostPer1K + float64(decoded.UsageMetadata.CandidatesTokenCount)/1000*p.pricing.OutputCostPer1K,
		}
	}

	return providers.ScoreResponse{
		RawJSON:         []byte(decoded.Candidates[0].Content.Parts[0].Text),
		ProviderModelID: p.model,
		Latency:         time.Since(start),
		Cost:            cost,
	}, nil
}
