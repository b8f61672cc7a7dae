// Package gemini implements the single-shot scoring backend for Google's
// generateContent API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AltairaLabs/beliefbench/credentials"
	"github.com/AltairaLabs/beliefbench/errs"
	"github.com/AltairaLabs/beliefbench/providers"
	"github.com/AltairaLabs/beliefbench/types"
)

// Provider implements providers.Provider against Google's generateContent
// REST endpoint.
type Provider struct {
	providers.BaseProvider
	model   string
	baseURL string
	apiKey  string
	pricing providers.Pricing
}

// NewProvider creates a Gemini backend. Authentication is via the "key"
// query parameter, as Gemini accepts no Authorization header.
func NewProvider(id, model, baseURL string, pricing providers.Pricing) *Provider {
	cred := credentials.Resolve("gemini")
	base, apiKey := providers.NewBaseProviderWithCredential(id, providers.DefaultProviderTimeout, cred)
	return &Provider{BaseProvider: base, model: model, baseURL: baseURL, apiKey: apiKey, pricing: pricing}
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens  int    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string `json:"responseMimeType,omitempty"`
	Seed             *int64 `json:"seed,omitempty"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type candidate struct {
	Content content `json:"content"`
}

type generateResponse struct {
	Candidates    []candidate    `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata,omitempty"`
}

// ScoreClaim sends one generateContent request, requesting an
// application/json response so the compliance filter sees strict JSON.
func (p *Provider) ScoreClaim(ctx context.Context, req providers.ScoreRequest) (providers.ScoreResponse, error) {
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

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	headers := providers.RequestHeaders{"Content-Type": "application/json"}

	raw, err := p.MakeJSONRequest(ctx, url, body, headers, "gemini")
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, err)
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
