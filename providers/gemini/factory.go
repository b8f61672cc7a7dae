package gemini

import (
	"context"
	"fmt"

	"github.com/AltairaLabs/beliefbench/credentials"
	"github.com/AltairaLabs/beliefbench/providers"
)

//nolint:gochecknoinits // factory registration requires init()
func init() {
	providers.RegisterProviderFactory("gemini", func(spec providers.ProviderSpec) (providers.Provider, error) {
		if spec.Model == "" {
			return nil, fmt.Errorf("gemini provider: model is required")
		}
		if platform, _ := spec.AdditionalConfig["platform"].(string); platform == "vertex" {
			return newVertexFromSpec(spec)
		}
		return NewProvider(spec.ID, spec.Model, spec.BaseURL, spec.Pricing), nil
	})
}

func newVertexFromSpec(spec providers.ProviderSpec) (providers.Provider, error) {
	project, _ := spec.AdditionalConfig["project"].(string)
	region, _ := spec.AdditionalConfig["region"].(string)
	if project == "" {
		return nil, fmt.Errorf("gemini vertex provider: project is required")
	}
	cred, err := credentials.NewGCPCredential(context.Background(), project, region)
	if err != nil {
		return nil, fmt.Errorf("gemini vertex provider: %w", err)
	}
	return NewVertexProvider(spec.ID, spec.Model, cred, spec.Pricing), nil
}
