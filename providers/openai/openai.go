// Package openai implements the single-shot scoring backend for OpenAI's
// chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AltairaLabs/beliefbench/credentials"
	"github.com/AltairaLabs/beliefbench/providers"
	"github.com/AltairaLabs/beliefbench/types"
)

const completionsPath = "/chat/completions"

// Provider implements providers.Provider against OpenAI's chat completions
// endpoint, requesting a JSON object response so the compliance filter sees
// strict JSON.
type Provider struct {
	providers.BaseProvider
	model   string
	baseURL string
	apiKey  string
	pricing providers.Pricing
}

// NewProvider creates an OpenAI backend. apiKey resolution follows the
// environment variable precedence wired in credentials.Resolve.
func NewProvider(id, model, baseURL string, pricing providers.Pricing) *Provider {
	cred := credentials.Resolve("openai")
	base, apiKey := providers.NewBaseProviderWithCredential(id, providers.DefaultProviderTimeout, cred)
	return &Provider{BaseProvider: base, model: model, baseURL: baseURL, apiKey: apiKey, pricing: pricing}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	Seed           *int64         `json:"seed,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// ScoreClaim sends one chat completion request and returns the model's
// message content as the raw payload handed to the compliance filter.
func (p *Provider) ScoreClaim(ctx context.Context, req providers.ScoreRequest) (providers.ScoreResponse, error) {
	start := time.Now()

	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.Instructions},
			{Role: "user", Content: req.UserText},
		},
		MaxTokens:      req.MaxOutputTokens,
		Seed:           req.Seed,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	headers := providers.RequestHeaders{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + p.apiKey,
	}

	raw, err := p.MakeJSONRequest(ctx, p.baseURL+completionsPath, body, headers, "openai")
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: %w", errProviderUnavailable, err)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: decode response: %w", errProviderUnavailable, err)
	}
	if len(decoded.Choices) == 0 {
		return providers.ScoreResponse{}, fmt.Errorf("%w: no choices in response", errProviderUnavailable)
	}

	cost := types.CostInfo{
		InputTokens:  decoded.Usage.PromptTokens,
		OutputTokens: decoded.Usage.CompletionTokens,
		TotalCostUSD: float64(decoded.Usage.PromptTokens)/1000*p.pricing.InputCostPer1K + float64(decoded.Usage.CompletionTokens)/1000*p.pricing.OutputCostPer1K,
	}

	modelID := decoded.Model
	if modelID == "" {
		modelID = p.model
	}

	return providers.ScoreResponse{
		RawJSON:         []byte(decoded.Choices[0].Message.Content),
		ProviderModelID: modelID,
		ResponseID:      decoded.ID,
		Latency:         time.Since(start),
		Cost:            cost,
	}, nil
}
