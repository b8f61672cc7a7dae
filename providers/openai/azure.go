package openai

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

const azureAPIVersion = "2024-06-01"

// AzureProvider scores claims through an Azure OpenAI deployment,
// authenticating with an Azure AD bearer token instead of an OpenAI API key.
type AzureProvider struct {
	providers.BaseProvider
	deployment string
	endpoint   string
	cred       *credentials.AzureCredential
	pricing    providers.Pricing
	client     *http.Client
}

// NewAzureProvider creates an Azure OpenAI backend. deployment is the Azure
// deployment name (distinct from the underlying model id).
func NewAzureProvider(id, deployment string, cred *credentials.AzureCredential, pricing providers.Pricing) *AzureProvider {
	client := &http.Client{Timeout: providers.DefaultProviderTimeout, Transport: providers.NewPooledTransport()}
	return &AzureProvider{
		BaseProvider: providers.NewBaseProvider(id, client),
		deployment:   deployment,
		endpoint:     cred.Endpoint(),
		cred:         cred,
		pricing:      pricing,
		client:       client,
	}
}

// ScoreClaim sends one chat completion request to the Azure OpenAI
// deployment, authenticated with an Azure AD token.
func (p *AzureProvider) ScoreClaim(ctx context.Context, req providers.ScoreRequest) (providers.ScoreResponse, error) {
	start := time.Now()

	body := chatRequest{
		Model: p.deployment,
		Messages: []chatMessage{
			{Role: "system", Content: req.Instructions},
			{Role: "user", Content: req.UserText},
		},
		MaxTokens:      req.MaxOutputTokens,
		Seed:           req.Seed,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("openai azure: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", p.endpoint, p.deployment, azureAPIVersion)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("openai azure: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if err := p.cred.Apply(ctx, httpReq); err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: apply azure token: %w", errs.ErrProviderUnavailable, err)
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

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: decode response: %w", errs.ErrProviderUnavailable, err)
	}
	if len(decoded.Choices) == 0 {
		return providers.ScoreResponse{}, fmt.Errorf("%w: no choices in response", errs.ErrProviderUnavailable)
	}

	cost := types.CostInfo{
		InputTokens:  decoded.Usage.PromptTokens,
		OutputTokens: decoded.Usage.CompletionTokens,
		TotalCostUSD: float64(decoded.Usage.PromptTokens)/1000*p.pricing.InputCostPer1K + float64(decoded.Usage.CompletionTokens)/1000*p.pricing.OutputCostPer1K,
	}

	return providers.ScoreResponse{
		RawJSON:         []byte(decoded.Choices[0].Message.Content),
		ProviderModelID: p.deployment,
		ResponseID:      decoded.ID,
		Latency:         time.Since(start),
		Cost:            cost,
	}, nil
}
