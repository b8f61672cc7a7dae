// Package ollama implements the single-shot scoring backend for local Ollama
// deployments, via its OpenAI-compatible chat completions endpoint.
package ollama

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

// Provider implements providers.Provider against a local Ollama server.
// Local inference carries no dollar cost; reported cost is always zero.
type Provider struct {
	providers.BaseProvider
	model   string
	baseURL string
}

// NewProvider creates an Ollama backend. No credential is required.
func NewProvider(id, model, baseURL string) *Provider {
	client := &http.Client{Timeout: httpTimeout, Transport: providers.NewPooledTransport()}
	return &Provider{BaseProvider: providers.NewBaseProvider(id, client), model: model, baseURL: baseURL}
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
	Stream    bool          `json:"stream"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
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
		Stream:    false,
	}

	headers := providers.RequestHeaders{"Content-Type": "application/json"}

	raw, err := p.MakeJSONRequest(ctx, p.baseURL+chatCompletionsPath, body, headers, "ollama")
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
