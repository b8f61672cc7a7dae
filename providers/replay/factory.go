package replay

import (
	"fmt"

	"github.com/AltairaLabs/beliefbench/providers"
)

//nolint:gochecknoinits // factory registration requires init()
func init() {
	providers.RegisterProviderFactory("replay", func(spec providers.ProviderSpec) (providers.Provider, error) {
		path, ok := spec.AdditionalConfig["recording"].(string)
		if !ok || path == "" {
			return nil, fmt.Errorf("replay provider: requires 'recording' path in additional_config")
		}
		return NewProviderFromFile(spec.ID, path)
	})
}
