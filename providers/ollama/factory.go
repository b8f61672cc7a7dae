package ollama

import (
	"fmt"

	"github.com/AltairaLabs/beliefbench/providers"
)

const defaultBaseURL = "http://localhost:11434"

//nolint:gochecknoinits // factory registration requires init()
func init() {
	providers.RegisterProviderFactory("ollama", func(spec providers.ProviderSpec) (providers.Provider, error) {
		if spec.Model == "" {
			return nil, fmt.Errorf("ollama provider: model is required")
		}
		baseURL := spec.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		return NewProvider(spec.ID, spec.Model, baseURL), nil
	})
}
