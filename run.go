// Package beliefbench is the library entrypoint for the measurement core: it
// wires the prompt bank, sample cache, scoring provider, and persistence
// layer into a Runner whose Run method executes one recipe end to end.
package beliefbench

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/AltairaLabs/beliefbench/cache"
	"github.com/AltairaLabs/beliefbench/orchestrator"
	"github.com/AltairaLabs/beliefbench/persistence"
	jsonartifact "github.com/AltairaLabs/beliefbench/persistence/json"
	"github.com/AltairaLabs/beliefbench/persistence/memory"
	"github.com/AltairaLabs/beliefbench/persistence/sqlite"
	"github.com/AltairaLabs/beliefbench/promptbank"
	"github.com/AltairaLabs/beliefbench/providers"
	"github.com/AltairaLabs/beliefbench/telemetry"
	"github.com/AltairaLabs/beliefbench/types"

	_ "github.com/AltairaLabs/beliefbench/providers/claude"
	_ "github.com/AltairaLabs/beliefbench/providers/gemini"
	_ "github.com/AltairaLabs/beliefbench/providers/ollama"
	_ "github.com/AltairaLabs/beliefbench/providers/openai"
	_ "github.com/AltairaLabs/beliefbench/providers/replay"
	_ "github.com/AltairaLabs/beliefbench/providers/vllm"
)

// Settings configures the collaborators a Runner wires together. The zero
// value selects in-memory, network-free defaults: the bundled prompt bank,
// an in-memory cache, and an in-memory store, suited to tests and mock runs.
type Settings struct {
	// PromptBankDir, when set, loads versioned banks from "<dir>/<version>.yaml".
	// Empty selects the bundled default bank regardless of prompt_version.
	PromptBankDir string

	// StorePath, when set, opens a durable SQLite store at this path. Empty
	// selects an in-memory store that does not survive process exit.
	StorePath string

	// RedisAddr, when set, backs the sample cache with Redis so multiple
	// run processes can share it. Empty selects an in-memory cache.
	RedisAddr string

	// ArtifactDir, when set, writes one JSON file per completed run.
	ArtifactDir string

	// Concurrency bounds in-flight provider calls per run. 0 selects the default.
	Concurrency int

	// ProviderBaseURL overrides the resolved provider type's default endpoint.
	ProviderBaseURL string

	// ProviderPricing supplies cost-per-1K-token rates for cost accounting.
	ProviderPricing providers.Pricing

	// AdditionalConfig is forwarded to the provider factory (platform routing,
	// Azure deployment/endpoint, Bedrock region, replay recording path, ...).
	AdditionalConfig map[string]interface{}

	// OTelEndpoint, when set, exports run and sample spans via OTLP/HTTP to
	// this collector endpoint. Empty disables tracing (the no-op tracer).
	OTelEndpoint string

	// OTelServiceName names this process in exported spans. Defaults to
	// "beliefbench" when OTelEndpoint is set and this is empty.
	OTelServiceName string
}

// Runner executes measurement recipes against a fixed set of collaborators,
// reusing one provider connection per resolved provider id across calls.
type Runner struct {
	loader      promptbank.Loader
	sampleCache cache.Cache
	store       persistence.Store
	artifacts   persistence.ArtifactWriter
	concurrency int

	registry   *providers.Registry
	baseURL    string
	pricing    providers.Pricing
	additional map[string]interface{}

	tracer         trace.Tracer
	tracerShutdown func(context.Context) error
}

// NewRunner builds a Runner from Settings.
func NewRunner(settings Settings) (*Runner, error) {
	loader := promptLoaderFor(settings)

	sampleCache, err := cacheFor(settings)
	if err != nil {
		return nil, err
	}

	store, err := storeFor(settings)
	if err != nil {
		return nil, err
	}

	var artifacts persistence.ArtifactWriter
	if settings.ArtifactDir != "" {
		artifacts = jsonartifact.New(settings.ArtifactDir)
	}

	tracer, shutdown, err := tracerFor(settings)
	if err != nil {
		return nil, err
	}

	return &Runner{
		loader:         loader,
		sampleCache:    sampleCache,
		store:          store,
		artifacts:      artifacts,
		concurrency:    settings.Concurrency,
		registry:       providers.NewRegistry(),
		baseURL:        settings.ProviderBaseURL,
		pricing:        settings.ProviderPricing,
		additional:     settings.AdditionalConfig,
		tracer:         tracer,
		tracerShutdown: shutdown,
	}, nil
}

// tracerFor builds the tracer a Runner's orchestrators share. With no
// OTelEndpoint configured it falls back to the global no-op tracer and a
// shutdown that does nothing.
func tracerFor(settings Settings) (trace.Tracer, func(context.Context) error, error) {
	if settings.OTelEndpoint == "" {
		return telemetry.Tracer(nil), func(context.Context) error { return nil }, nil
	}

	serviceName := settings.OTelServiceName
	if serviceName == "" {
		serviceName = "beliefbench"
	}

	tp, err := telemetry.NewTracerProvider(context.Background(), settings.OTelEndpoint, serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("beliefbench: setting up tracing: %w", err)
	}
	telemetry.SetupPropagation()

	return telemetry.Tracer(tp), tp.Shutdown, nil
}

// Run executes one measurement recipe end to end.
func (r *Runner) Run(ctx context.Context, cfg types.RunConfig) (*types.RunResult, error) {
	provider, err := r.resolveProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("beliefbench: resolving provider for model %q: %w", cfg.Model, err)
	}

	o := orchestrator.New(r.loader, provider, r.sampleCache, r.store, r.artifacts, r.concurrency)
	o.Tracer = r.tracer
	return o.Run(ctx, cfg)
}

// Close releases every resolved provider connection, the durable store, and
// flushes any pending spans.
func (r *Runner) Close() error {
	var firstErr error
	if err := r.registry.Close(); err != nil {
		firstErr = err
	}
	if err := r.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if r.tracerShutdown != nil {
		if err := r.tracerShutdown(context.Background()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// resolveProvider looks up (or lazily constructs and caches) the provider
// backing cfg.Model. cfg.Mock always resolves to the shared mock backend
// regardless of the model string, so a mock run never needs credentials.
func (r *Runner) resolveProvider(cfg types.RunConfig) (providers.Provider, error) {
	if cfg.Mock {
		return r.providerByID("mock", providers.ProviderSpec{ID: "mock", Type: "mock", Model: cfg.Model})
	}

	providerType, model := splitModel(cfg.Model)
	id := providerType + ":" + model
	spec := providers.ProviderSpec{
		ID:               id,
		Type:             providerType,
		Model:            model,
		BaseURL:          r.baseURL,
		Pricing:          r.pricing,
		AdditionalConfig: r.additional,
	}
	return r.providerByID(id, spec)
}

func (r *Runner) providerByID(id string, spec providers.ProviderSpec) (providers.Provider, error) {
	if p, ok := r.registry.Get(id); ok {
		return p, nil
	}
	p, err := providers.CreateProviderFromSpec(spec)
	if err != nil {
		return nil, err
	}
	r.registry.Register(p)
	return p, nil
}

// splitModel splits a "type:model" string into its provider type and model
// name. A string with no colon is treated as both the type and the model,
// which only resolves for backends that ignore the model field (none today,
// but keeps the split total).
func splitModel(modelStr string) (providerType, model string) {
	idx := strings.IndexByte(modelStr, ':')
	if idx < 0 {
		return modelStr, modelStr
	}
	return modelStr[:idx], modelStr[idx+1:]
}

func promptLoaderFor(settings Settings) promptbank.Loader {
	if settings.PromptBankDir != "" {
		return promptbank.NewFileLoader(settings.PromptBankDir)
	}
	return promptbank.NewStaticLoader(promptbank.Default())
}

func cacheFor(settings Settings) (cache.Cache, error) {
	if settings.RedisAddr == "" {
		return cache.NewMemoryCache(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: settings.RedisAddr})
	return cache.NewRedisCache(client), nil
}

func storeFor(settings Settings) (persistence.Store, error) {
	if settings.StorePath == "" {
		return memory.New(), nil
	}
	return sqlite.Open(settings.StorePath)
}
