// Package claude implements the single-shot scoring backend for Anthropic's
// Messages API.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AltairaLabs/beliefbench/credentials"
	"github.com/AltairaLabs/beliefbench/errs"
	"github.com/AltairaLabs/beliefbench/providers"
	"github.com/AltairaLabs/beliefbench/types"
)

const (
	anthropicVersion = "2023-06-01"
	anthropicAPIHost = "api.anthropic.com"
	messagesPath     = "/messages"
)

// Provider implements providers.Provider against Anthropic's Messages API.
type Provider struct {
	providers.BaseProvider
	model   string
	baseURL string
	apiKey  string
	pricing providers.Pricing
}

// NewProvider creates a Claude backend.
func NewProvider(id, model, baseURL string, pricing providers.Pricing) *Provider {
	cred := credentials.Resolve("claude")
	base, apiKey := providers.NewBaseProviderWithCredential(id, providers.DefaultProviderTimeout, cred)
	return &Provider{BaseProvider: base, model: model, baseURL: normalizeBaseURL(baseURL), apiKey: apiKey, pricing: pricing}
}

// normalizeBaseURL appends /v1 to the Anthropic API host when missing,
// leaving other hosts (mock servers, gateways) untouched.
func normalizeBaseURL(baseURL string) string {
	if strings.Contains(baseURL, anthropicAPIHost) && !strings.Contains(baseURL, "/v1") {
		return strings.TrimSuffix(baseURL, "/") + "/v1"
	}
	return baseURL
}

type messageContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type requestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string           `json:"model"`
	System    string           `json:"system,omitempty"`
	Messages  []requestMessage `json:"messages"`
	MaxTokens int              `json:"max_tokens"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type messagesResponse struct {
	ID      string           `json:"id"`
	Model   string           `json:"model"`
	Content []messageContent `json:"content"`
	Usage   usage            `json:"usage"`
}

// ScoreClaim sends one Messages API request. Claude has no native
// JSON-object mode; the compliance JSON format is enforced entirely by the
// composed instructions.
func (p *Provider) ScoreClaim(ctx context.Context, req providers.ScoreRequest) (providers.ScoreResponse, error) {
	start := time.Now()

	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}

	body := messagesRequest{
		Model:     p.model,
		System:    req.Instructions,
		Messages:  []requestMessage{{Role: "user", Content: req.UserText}},
		MaxTokens: maxTokens,
	}

	headers := providers.RequestHeaders{
		"Content-Type":      "application/json",
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}

	raw, err := p.MakeJSONRequest(ctx, p.baseURL+messagesPath, body, headers, "claude")
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, err)
	}

	var decoded messagesResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: decode response: %w", errs.ErrProviderUnavailable, err)
	}
	if len(decoded.Content) == 0 {
		return providers.ScoreResponse{}, fmt.Errorf("%w: empty content block", errs.ErrProviderUnavailable)
	}

	cost := types.CostInfo{
		InputTokens:  decoded.Usage.InputTokens,
		OutputTokens: decoded.Usage.OutputTokens,
		TotalCostUSD: float64(decoded.Usage.InputTokens)/1000*p.pricing.InputCostPer1K + float64(decoded.Usage.OutputTokens)/1000*p.pricing.OutputCostPer1K,
	}

	modelID := decoded.Model
	if modelID == "" {
		modelID = p.model
	}

	return providers.ScoreResponse{
		RawJSON:         []byte(decoded.Content[0].Text),
		ProviderModelID: modelID,
		ResponseID:      decoded.ID,
		Latency:         time.Since(start),
		Cost:            cost,
	}, nil
}
