package providers

import "fmt"

// Registry tracks live provider instances for a run, keyed by provider ID, so
// the orchestrator can reuse a connection pool across samples of the same
// model and close it once the run finishes.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider to the registry, keyed by its ID.
func (r *Registry) Register(provider Provider) {
	r.providers[provider.ID()] = provider
}

// Get retrieves a provider by ID.
func (r *Registry) Get(id string) (Provider, bool) {
	provider, exists := r.providers[id]
	return provider, exists
}

// List returns all registered provider IDs.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}

// Close closes every registered provider, returning the first error
// encountered (if any) after attempting to close them all.
func (r *Registry) Close() error {
	var firstErr error
	for _, provider := range r.providers {
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ProviderSpec holds the configuration needed to construct a backend instance
// from a run's model string (e.g. "openai:gpt-4.1" resolves to Type="openai",
// Model="gpt-4.1").
type ProviderSpec struct {
	ID      string
	Type    string
	Model   string
	BaseURL string

	Pricing Pricing

	// AdditionalConfig carries backend-specific knobs (e.g. replay's
	// recording path) that don't belong on the common spec.
	AdditionalConfig map[string]interface{}
}

// ProviderFactory constructs a Provider from a spec. Backends register their
// factory via RegisterProviderFactory in an init() function.
type ProviderFactory func(spec ProviderSpec) (Provider, error)

var providerFactories = make(map[string]ProviderFactory)

// RegisterProviderFactory registers a factory under a provider type name
// ("openai", "claude", "gemini", "ollama", "vllm", "mock", "replay", ...).
// Called from each backend package's init().
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}

// defaultBaseURLs holds the well-known endpoint for each hosted backend.
// Backends with no fixed endpoint (mock, replay, ollama's usual localhost,
// vllm's operator-supplied deployment) are absent and expect BaseURL to be
// set explicitly, falling back to an empty string otherwise.
var defaultBaseURLs = map[string]string{
	"openai":  "https://api.openai.com/v1",
	"gemini":  "https://generativelanguage.googleapis.com/v1beta",
	"claude":  "https://api.anthropic.com",
	"ollama":  "http://localhost:11434",
}

// CreateProviderFromSpec constructs a provider implementation from a spec,
// looking up the registered factory for spec.Type. Returns
// *UnsupportedProviderError if no backend registered that type.
func CreateProviderFromSpec(spec ProviderSpec) (Provider, error) {
	if spec.BaseURL == "" {
		spec.BaseURL = defaultBaseURLs[spec.Type]
	}

	factory, ok := providerFactories[spec.Type]
	if !ok {
		return nil, &UnsupportedProviderError{ProviderType: spec.Type}
	}
	provider, err := factory(spec)
	if err != nil {
		return nil, err
	}
	return WithRetry(provider), nil
}

// UnsupportedProviderError is returned when a provider type has no
// registered factory.
type UnsupportedProviderError struct {
	ProviderType string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider type: %s", e.ProviderType)
}

//nolint:gochecknoinits // self-registration mirrors the backend packages' pattern
func init() {
	RegisterProviderFactory("mock", func(spec ProviderSpec) (Provider, error) {
		return NewMockProvider(spec.Model), nil
	})
}
