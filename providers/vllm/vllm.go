// Package vllm implements the single-shot scoring backend for operator-hosted
// vLLM deployments, via the same OpenAI-compatible chat completions surface
// vLLM serves.
package vllm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AltairaLabs/beliefbench/errs"
	"github.com/AltairaLabs/beliefbench/providers"
)

const (
	chatCompletionsPath = "/v1/chat/completions"
	httpTimeout         = 120 * time.Second
)

// Provider implements providers.Provider against a vLLM deployment. Auth is
// optional; vllm.apiKey is empty when the deployment requires none.
type Provider struct {
	providers.BaseProvider
	model   string
	baseURL string
	apiKey  string
}

// NewProvider creates a vLLM backend. apiKey may be empty.
func NewProvider(id, model, baseURL, apiKey string) *Provider {
	client := &http.Client{Timeout: httpTimeout, Transport: providers.NewPooledTransport()}
	return &Provider{BaseProvider: providers.NewBaseProvider(id, client), model: model, baseURL: baseURL, apiKey: apiKey}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Seed      *int64        `json:"seed,omitempty"`
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

// ScoreClaim sends one non-streaming chat completion request.
func (p *Provider) ScoreClaim(ctx context.Context, req providers.ScoreRequest) (providers.ScoreResponse, error) {
	start := time.Now()

	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.Instructions},
			{Role: "user", Content: req.UserText},
		},
		MaxTokens: req.MaxOutputTokens,
		Seed:      req.Seed,
	}

	headers := providers.RequestHeaders{"Content-Type": "application/json"}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	raw, err := p.MakeJSONRequest(ctx, p.baseURL+chatCompletionsPath, body, headers, "vllm")
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, err)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: decode response: %w", errs.ErrProviderUnavailable, err)
	}
	if len(decoded.Choices) == 0 {
		return providers.ScoreResponse{}, fmt.Errorf("%w: no choices in response", errs.ErrProviderUnavailable)
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
	}, nil
}
