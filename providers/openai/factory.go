package openai

import (
	"context"
	"fmt"

	"github.com/AltairaLabs/beliefbench/credentials"
	"github.com/AltairaLabs/beliefbench/errs"
	"github.com/AltairaLabs/beliefbench/providers"
)

var errProviderUnavailable = errs.ErrProviderUnavailable

//nolint:gochecknoinits // factory registration requires init()
func init() {
	providers.RegisterProviderFactory("openai", func(spec providers.ProviderSpec) (providers.Provider, error) {
		if spec.Model == "" {
			return nil, fmt.Errorf("openai provider: model is required")
		}
		if platform, _ := spec.AdditionalConfig["platform"].(string); platform == "azure" {
			return newAzureFromSpec(spec)
		}
		return NewProvider(spec.ID, spec.Model, spec.BaseURL, spec.Pricing), nil
	})
}

func newAzureFromSpec(spec providers.ProviderSpec) (providers.Provider, error) {
	endpoint, _ := spec.AdditionalConfig["endpoint"].(string)
	if endpoint == "" {
		endpoint = spec.BaseURL
	}
	if endpoint == "" {
		return nil, fmt.Errorf("openai azure provider: endpoint is required")
	}
	deployment, _ := spec.AdditionalConfig["deployment"].(string)
	if deployment == "" {
		deployment = spec.Model
	}
	cred, err := credentials.NewAzureCredential(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("openai azure provider: %w", err)
	}
	return NewAzureProvider(spec.ID, deployment, cred, spec.Pricing), nil
}
