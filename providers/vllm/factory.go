package vllm

import (
	"fmt"

	"github.com/AltairaLabs/beliefbench/providers"
)

//nolint:gochecknoinits // factory registration requires init()
func init() {
	providers.RegisterProviderFactory("vllm", func(spec providers.ProviderSpec) (providers.Provider, error) {
		if spec.Model == "" {
			return nil, fmt.Errorf("vllm provider: model is required")
		}
		if spec.BaseURL == "" {
			return nil, fmt.Errorf("vllm provider: base_url is required")
		}
		apiKey, _ := spec.AdditionalConfig["api_key"].(string)
		return NewProvider(spec.ID, spec.Model, spec.BaseURL, apiKey), nil
	})
}
