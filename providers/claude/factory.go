package claude

import (
	"context"
	"fmt"

	"github.com/AltairaLabs/beliefbench/credentials"
	"github.com/AltairaLabs/beliefbench/providers"
)

//nolint:gochecknoinits // factory registration requires init()
func init() {
	providers.RegisterProviderFactory("claude", func(spec providers.ProviderSpec) (providers.Provider, error) {
		if spec.Model == "" {
			return nil, fmt.Errorf("claude provider: model is required")
		}
		if platform, _ := spec.AdditionalConfig["platform"].(string); platform == "bedrock" {
			return newBedrockFromSpec(spec)
		}
		return NewProvider(spec.ID, spec.Model, spec.BaseURL, spec.Pricing), nil
	})
}

func newBedrockFromSpec(spec providers.ProviderSpec) (providers.Provider, error) {
	region, _ := spec.AdditionalConfig["region"].(string)
	cred, err := credentials.NewAWSCredential(context.Background(), region)
	if err != nil {
		return nil, fmt.Errorf("claude bedrock provider: %w", err)
	}
	return NewBedrockProvider(spec.ID, spec.Model, cred.Region(), cred, spec.Pricing)
}
