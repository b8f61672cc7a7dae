package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AltairaLabs/beliefbench"
	metrics "github.com/AltairaLabs/beliefbench/metrics/prometheus"
	"github.com/AltairaLabs/beliefbench/providers"
	"github.com/AltairaLabs/beliefbench/types"
)

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("claim", "", "the factual claim to measure (required)")
	flags.String("model", "mock", `provider and model as "type:model", e.g. "openai:gpt-4o"`)
	flags.String("prompt-version", "v1-default", "prompt bank version to load")
	flags.Int("k", 12, "total number of template slots")
	flags.Int("r", 3, "replicates per template occurrence")
	flags.Int("t", 6, "number of distinct templates drawn from the bank")
	flags.Int("b", 5000, "number of bootstrap resamples")
	flags.Int("max-output-tokens", 64, "max output tokens requested from the provider")
	flags.Int("max-prompt-chars", 0, "fail fast if composed prompt text exceeds this many characters (0 disables)")
	flags.Int64("seed", 0, "fixed bootstrap seed override (0 derives one deterministically)")
	flags.Bool("mock", false, "use the deterministic mock provider instead of a real backend")
	flags.Bool("no-cache", false, "bypass the sample cache and force fresh provider calls")
	flags.Int("concurrency", 0, "bound on in-flight provider calls (0 selects the default)")
	flags.String("prompt-bank-dir", "", "directory of <version>.yaml prompt banks (empty uses the bundled bank)")
	flags.String("store", "", "sqlite database path (empty uses an in-memory, non-durable store)")
	flags.String("redis-addr", "", "redis address for a shared sample cache (empty uses an in-memory cache)")
	flags.String("artifact-dir", "", "directory to write one JSON result file per run (empty disables)")
	flags.String("base-url", "", "override the resolved provider's default endpoint")
	flags.String("otel-endpoint", "", "OTLP/HTTP collector endpoint for run tracing (empty disables tracing)")
	flags.String("metrics-addr", "", "address to serve Prometheus metrics on for the duration of the run (empty disables)")

	_ = viper.BindPFlags(flags)
	viper.SetEnvPrefix("beliefbench")
	viper.AutomaticEnv()
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one measurement recipe and print its aggregated result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMeasurement(cmd.Context())
	},
}

func runMeasurement(ctx context.Context) error {
	claim := viper.GetString("claim")
	if claim == "" {
		return fmt.Errorf("--claim is required")
	}

	var seed *int64
	if s := viper.GetInt64("seed"); s != 0 {
		seed = &s
	}

	cfg := types.RunConfig{
		Claim:           claim,
		Model:           viper.GetString("model"),
		PromptVersion:   viper.GetString("prompt-version"),
		K:               viper.GetInt("k"),
		R:               viper.GetInt("r"),
		T:               viper.GetInt("t"),
		B:               viper.GetInt("b"),
		MaxOutputTokens: viper.GetInt("max-output-tokens"),
		MaxPromptChars:  viper.GetInt("max-prompt-chars"),
		Seed:            seed,
		Mock:            viper.GetBool("mock"),
		NoCache:         viper.GetBool("no-cache"),
	}

	settings := beliefbench.Settings{
		PromptBankDir:   viper.GetString("prompt-bank-dir"),
		StorePath:       viper.GetString("store"),
		RedisAddr:       viper.GetString("redis-addr"),
		ArtifactDir:     viper.GetString("artifact-dir"),
		Concurrency:     viper.GetInt("concurrency"),
		ProviderBaseURL: viper.GetString("base-url"),
		ProviderPricing: providers.Pricing{},
		OTelEndpoint:    viper.GetString("otel-endpoint"),
	}

	if addr := viper.GetString("metrics-addr"); addr != "" {
		exporter := metrics.NewExporter(addr)
		go func() { _ = exporter.Start() }()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = exporter.Shutdown(shutdownCtx)
		}()
	}

	runner, err := beliefbench.NewRunner(settings)
	if err != nil {
		return err
	}
	defer func() { _ = runner.Close() }()

	result, err := runner.Run(ctx, cfg)
	if result == nil {
		return err
	}

	out, marshalErr := json.MarshalIndent(result, "", "  ")
	if marshalErr != nil {
		return fmt.Errorf("marshaling result: %w", marshalErr)
	}
	fmt.Println(string(out))
	return err
}
