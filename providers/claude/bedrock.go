package claude

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

const bedrockVersion = "bedrock-2023-05-31"

// bedrockRequest omits the "model" field Bedrock's invoke endpoint already
// encodes in the URL path.
type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	System           string           `json:"system,omitempty"`
	Messages         []requestMessage `json:"messages"`
	MaxTokens        int              `json:"max_tokens"`
}

// BedrockProvider scores claims through a Claude model hosted on AWS
// Bedrock, authenticating with SigV4 instead of an Anthropic API key.
type BedrockProvider struct {
	providers.BaseProvider
	bedrockModelID string
	endpoint       string
	cred           *credentials.AWSCredential
	pricing        providers.Pricing
	client         *http.Client
}

// NewBedrockProvider creates a Claude-on-Bedrock backend. model is the
// Anthropic model name (e.g. "claude-3-5-sonnet-20241022"), looked up in
// credentials.BedrockModelMapping for the Bedrock-specific model id.
func NewBedrockProvider(id, model, region string, cred *credentials.AWSCredential, pricing providers.Pricing) (*BedrockProvider, error) {
	bedrockModelID, ok := credentials.BedrockModelMapping[model]
	if !ok {
		return nil, fmt.Errorf("claude bedrock provider: no Bedrock mapping for model %q", model)
	}

	client := &http.Client{Timeout: providers.DefaultProviderTimeout, Transport: providers.NewPooledTransport()}
	return &BedrockProvider{
		BaseProvider:   providers.NewBaseProvider(id, client),
		bedrockModelID: bedrockModelID,
		endpoint:       credentials.BedrockEndpoint(region),
		cred:           cred,
		pricing:        pricing,
		client:         client,
	}, nil
}

// ScoreClaim invokes the model via Bedrock's runtime invoke endpoint,
// signing the request with AWS SigV4.
func (p *BedrockProvider) ScoreClaim(ctx context.Context, req providers.ScoreRequest) (providers.ScoreResponse, error) {
	start := time.Now()

	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}

	body := bedrockRequest{
		AnthropicVersion: bedrockVersion,
		System:           req.Instructions,
		Messages:         []requestMessage{{Role: "user", Content: req.UserText}},
		MaxTokens:        maxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("claude bedrock: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/model/%s/invoke", p.endpoint, p.bedrockModelID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("claude bedrock: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if err := p.cred.Apply(ctx, httpReq); err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("%w: sign bedrock request: %w", errs.ErrProviderUnavailable, err)
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

	return providers.ScoreResponse{
		RawJSON:         []byte(decoded.Content[0].Text),
		ProviderModelID: p.bedrockModelID,
		ResponseID:      decoded.ID,
		Latency:         time.Since(start),
		Cost:            cost,
	}, nil
}
