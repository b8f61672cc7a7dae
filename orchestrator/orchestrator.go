// Package orchestrator wires the deterministic sampling plan to the prompt
// composer, sample cache, scoring provider, compliance filter, and estimator,
// and persists the result. It owns the one piece of the pipeline the sampler
// itself does not: expanding each planned template occurrence into R
// replicates and bounding how many provider calls run at once.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/AltairaLabs/beliefbench/cache"
	"github.com/AltairaLabs/beliefbench/composer"
	"github.com/AltairaLabs/beliefbench/compliance"
	"github.com/AltairaLabs/beliefbench/errs"
	"github.com/AltairaLabs/beliefbench/estimator"
	metrics "github.com/AltairaLabs/beliefbench/metrics/prometheus"
	"github.com/AltairaLabs/beliefbench/persistence"
	"github.com/AltairaLabs/beliefbench/promptbank"
	"github.com/AltairaLabs/beliefbench/providers"
	"github.com/AltairaLabs/beliefbench/sampler"
	"github.com/AltairaLabs/beliefbench/seed"
	"github.com/AltairaLabs/beliefbench/stability"
	"github.com/AltairaLabs/beliefbench/telemetry"
	"github.com/AltairaLabs/beliefbench/types"
)

// centerMethod names the frozen aggregation center, recorded on every run row.
const centerMethod = "trimmed-mean"

// aggregationMethod names the frozen estimator, recorded on every run row.
const aggregationMethod = "logit-space-clustered-bootstrap"

const (
	defaultConcurrency = 8
	minConcurrency     = 1
	maxConcurrency     = 12
)

// Orchestrator runs one measurement recipe end to end: plan, compose, cache,
// score, filter, estimate, persist.
type Orchestrator struct {
	PromptLoader promptbank.Loader
	Provider     providers.Provider
	Cache        cache.Cache
	Store        persistence.Store

	// Artifacts is optional; when set, a completed run's full result is also
	// written through it.
	Artifacts persistence.ArtifactWriter

	// Concurrency bounds the number of provider calls in flight at once.
	// Values outside [1,12] are clamped; 0 selects the default of 8.
	Concurrency int

	// Tracer emits a "run" span per invocation and a "sample.score" child span
	// per tuple. Defaults to the global no-op tracer when unset.
	Tracer trace.Tracer
}

// New creates an Orchestrator. provider, c, and store must be non-nil; artifacts
// may be nil to skip artifact writing.
func New(loader promptbank.Loader, provider providers.Provider, c cache.Cache, store persistence.Store, artifacts persistence.ArtifactWriter, concurrency int) *Orchestrator {
	return &Orchestrator{
		PromptLoader: loader,
		Provider:     provider,
		Cache:        c,
		Store:        store,
		Artifacts:    artifacts,
		Concurrency:  clampConcurrency(concurrency),
		Tracer:       telemetry.Tracer(nil),
	}
}

func clampConcurrency(n int) int {
	if n == 0 {
		return defaultConcurrency
	}
	if n < minConcurrency {
		return minConcurrency
	}
	if n > maxConcurrency {
		return maxConcurrency
	}
	return n
}

// plannedTuple is one (paraphrase, occurrence, replicate) identity, fully
// determined before any provider call is dispatched.
type plannedTuple struct {
	templateIdx   int
	replicateIdx  int
	cacheKey      string
	promptSHA256  string
	instructions  string
	userText      string
}

// Run executes one measurement recipe for cfg and returns its structured
// result. A nil error and non-nil result indicates a successful run; a
// persistence failure is reported via a wrapped errs.ErrStorageFailure
// alongside a still-valid result.
func (o *Orchestrator) Run(ctx context.Context, cfg types.RunConfig) (*types.RunResult, error) {
	ctx, span := o.Tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("beliefbench.model", cfg.Model),
		attribute.String("beliefbench.prompt_version", cfg.PromptVersion),
		attribute.Int("beliefbench.k", cfg.K),
		attribute.Int("beliefbench.r", cfg.R),
	))
	defer span.End()

	metrics.RecordRunStart()
	start := timeNow()
	result, err := o.run(ctx, cfg)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.RecordRunEnd(status, timeNow().Sub(start).Seconds())
	return result, err
}

func (o *Orchestrator) run(ctx context.Context, cfg types.RunConfig) (*types.RunResult, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	bank, err := o.PromptLoader.Load(cfg.PromptVersion)
	if err != nil {
		return nil, err
	}

	plan, err := sampler.Plan(cfg.Claim, cfg.Model, cfg.PromptVersion, len(bank.Paraphrases), cfg.T, cfg.K)
	if err != nil {
		return nil, err
	}
	plan.R = cfg.R

	runID := computeRunID(cfg.Claim, cfg.Model, cfg.PromptVersion, cfg.K, cfg.R)
	executionID := uuid.New().String()

	comp := composer.New(cfg.MaxPromptChars)

	// Compose every distinct template once, up front: this fixes every
	// sample's prompt_sha256 and cache_key before any concurrent work starts.
	composedByTpl := make(map[int]composer.Composed, len(plan.TplIndices))
	for _, tplIdx := range plan.TplIndices {
		composed, err := comp.Compose(bank, cfg.Claim, tplIdx)
		if err != nil {
			return nil, err
		}
		composedByTpl[tplIdx] = composed
	}

	tuples := make([]plannedTuple, 0, cfg.K*cfg.R)
	for occurrence, tplIdx := range plan.Seq {
		composed := composedByTpl[tplIdx]
		for r := 0; r < cfg.R; r++ {
			replicateIdx := occurrence*cfg.R + r
			key := cache.Key(cfg.Claim, cfg.Model, cfg.PromptVersion, composed.PromptSHA256, replicateIdx, cfg.MaxOutputTokens)
			tuples = append(tuples, plannedTuple{
				templateIdx:  tplIdx,
				replicateIdx: replicateIdx,
				cacheKey:     key,
				promptSHA256: composed.PromptSHA256,
				instructions: composed.Instructions,
				userText:     composed.UserText,
			})
		}
	}

	samples, cacheHits, err := o.collect(ctx, cfg, runID, tuples)
	if err != nil {
		return nil, err
	}

	var storageErr error
	for i := range samples {
		if err := o.Store.UpsertSample(ctx, samples[i]); err != nil && storageErr == nil {
			storageErr = fmt.Errorf("%w: upserting sample: %v", errs.ErrStorageFailure, err)
		}
	}

	samplesByTemplate := make(map[string][]float64)
	compliantCount := 0
	for _, s := range samples {
		if s.Logit == nil {
			continue
		}
		compliantCount++
		samplesByTemplate[s.PromptSHA256] = append(samplesByTemplate[s.PromptSHA256], *s.Logit)
	}

	if compliantCount == 0 {
		return nil, errs.ErrNoValidSamples
	}

	templateHashes := make([]string, 0, len(composedByTpl))
	for _, composed := range composedByTpl {
		templateHashes = append(templateHashes, composed.PromptSHA256)
	}
	sort.Strings(templateHashes)

	bootstrapSeed := seed.BootstrapSeed(cfg.Claim, cfg.Model, cfg.PromptVersion, cfg.K, cfg.R, cfg.B, centerMethod, estimator.Trim, templateHashes)
	var configuredSeed int64
	if cfg.Seed != nil {
		configuredSeed = *cfg.Seed
		bootstrapSeed = *cfg.Seed
	}

	bootstrapStart := timeNow()
	est, err := estimator.Estimate(samplesByTemplate, estimator.Config{B: cfg.B, BootstrapSeed: bootstrapSeed})
	metrics.RecordBootstrapDuration(runID, timeNow().Sub(bootstrapStart).Seconds())
	if err != nil {
		return nil, err
	}

	stabilityScore := stability.Score(est.TemplateIQRLogit)
	isStable := stability.IsStable(est.CIWidth, 0)

	total := len(samples)
	aggregates := types.Aggregates{
		ProbTrueRPL:       est.ProbTrueRPL,
		CILo:              est.CILo,
		CIHi:              est.CIHi,
		CIWidth:           est.CIWidth,
		TemplateIQRLogit:  est.TemplateIQRLogit,
		StabilityScore:    stabilityScore,
		IsStable:          isStable,
		RPLComplianceRate: float64(compliantCount) / float64(total),
		CacheHitRate:      float64(cacheHits) / float64(total),
	}

	countsByTemplate := make(map[string]int, len(plan.CountsByTemplate))
	for tplIdx, count := range plan.CountsByTemplate {
		countsByTemplate[strconv.Itoa(tplIdx)] = count
	}

	aggregation := types.AggregationInfo{
		Method:           aggregationMethod,
		B:                cfg.B,
		Center:           centerMethod,
		Trim:             estimator.Trim,
		BootstrapSeed:    bootstrapSeed,
		NTemplates:       est.NTemplates,
		CountsByTemplate: countsByTemplate,
		ImbalanceRatio:   plan.ImbalanceRatio,
	}

	promptCharLenMax := 0
	for _, composed := range composedByTpl {
		if n := len(composed.Instructions) + len(composed.UserText); n > promptCharLenMax {
			promptCharLenMax = n
		}
	}

	createdAt := timeNow()

	result := &types.RunResult{
		RunID:       runID,
		ExecutionID: executionID,
		Config:      cfg,
		Aggregates:  aggregates,
		Aggregation: aggregation,
		Sampling:    plan,
		Samples:     samples,
		CreatedAt:   createdAt,
	}

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: marshaling config: %w", err)
	}
	samplerJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: marshaling sampling plan: %w", err)
	}
	countsJSON, err := json.Marshal(countsByTemplate)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: marshaling template counts: %w", err)
	}

	aggregate := types.RunAggregate{
		RunID:                runID,
		CreatedAt:            createdAt,
		Claim:                cfg.Claim,
		Model:                cfg.Model,
		PromptVersion:        cfg.PromptVersion,
		K:                    cfg.K,
		R:                    cfg.R,
		T:                    cfg.T,
		B:                    cfg.B,
		Seed:                 configuredSeed,
		BootstrapSeed:        bootstrapSeed,
		ProbTrueRPL:          aggregates.ProbTrueRPL,
		CILo:                 aggregates.CILo,
		CIHi:                 aggregates.CIHi,
		CIWidth:              aggregates.CIWidth,
		TemplateIQRLogit:     aggregates.TemplateIQRLogit,
		StabilityScore:       aggregates.StabilityScore,
		ImbalanceRatio:       plan.ImbalanceRatio,
		RPLComplianceRate:    aggregates.RPLComplianceRate,
		CacheHitRate:         aggregates.CacheHitRate,
		ConfigJSON:           string(configJSON),
		SamplerJSON:          string(samplerJSON),
		CountsByTemplateJSON: string(countsJSON),
		PromptCharLenMax:     promptCharLenMax,
	}

	if err := o.Store.UpsertRun(ctx, aggregate); err != nil && storageErr == nil {
		storageErr = fmt.Errorf("%w: upserting run: %v", errs.ErrStorageFailure, err)
	}

	if o.Artifacts != nil {
		if err := o.Artifacts.WriteArtifact(ctx, *result); err != nil && storageErr == nil {
			storageErr = fmt.Errorf("%w: writing artifact: %v", errs.ErrStorageFailure, err)
		}
	}

	return result, storageErr
}

// collect dispatches one worker per tuple, bounded by o.Concurrency, and
// returns the resulting samples in the same order as tuples plus the count
// that were served from cache.
func (o *Orchestrator) collect(ctx context.Context, cfg types.RunConfig, runID string, tuples []plannedTuple) ([]types.Sample, int, error) {
	sem := semaphore.NewWeighted(int64(o.Concurrency))
	samples := make([]types.Sample, len(tuples))
	cacheHits := make([]bool, len(tuples))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var fatalErr error

	for i, tup := range tuples {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if fatalErr == nil {
				fatalErr = err
			}
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(i int, tup plannedTuple) {
			defer wg.Done()
			defer sem.Release(1)

			sample, hit := o.runTuple(ctx, cfg, runID, tup)
			samples[i] = sample
			cacheHits[i] = hit
		}(i, tup)
	}

	wg.Wait()

	if fatalErr != nil {
		return nil, 0, fmt.Errorf("orchestrator: collecting samples: %w", fatalErr)
	}

	hitCount := 0
	for _, hit := range cacheHits {
		if hit {
			hitCount++
		}
	}
	return samples, hitCount, nil
}

// runTuple resolves one planned sample: a cache hit reuses the stored
// compliance outcome verbatim; a miss calls the provider and applies the
// compliance filter fresh. A provider error is never propagated from here:
// it is recorded as a non-compliant sample so the rest of the run proceeds.
func (o *Orchestrator) runTuple(ctx context.Context, cfg types.RunConfig, runID string, tup plannedTuple) (types.Sample, bool) {
	ctx, span := o.Tracer.Start(ctx, "sample.score", trace.WithAttributes(
		attribute.Int("beliefbench.paraphrase_idx", tup.templateIdx),
		attribute.Int("beliefbench.replicate_idx", tup.replicateIdx),
	))
	defer span.End()

	sample, hit := o.scoreTuple(ctx, cfg, runID, tup)
	span.SetAttributes(attribute.Bool("beliefbench.cache_hit", hit), attribute.Bool("beliefbench.compliant", sample.JSONValid))
	return sample, hit
}

func (o *Orchestrator) scoreTuple(ctx context.Context, cfg types.RunConfig, runID string, tup plannedTuple) (types.Sample, bool) {
	if !cfg.NoCache {
		if cached, ok, err := o.Cache.Get(ctx, tup.cacheKey); err == nil && ok {
			metrics.RecordCacheLookup(true)
			s := *cached
			s.RunID = runID
			return s, true
		}
	}
	metrics.RecordCacheLookup(false)

	req := providers.ScoreRequest{
		Instructions:    tup.instructions,
		UserText:        tup.userText,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Seed:            cfg.Seed,
	}

	start := timeNow()
	resp, err := o.Provider.ScoreClaim(ctx, req)
	if err != nil {
		metrics.RecordSample(o.Provider.ID(), cfg.Model, "error", timeNow().Sub(start).Seconds())
		return types.Sample{
			CacheKey:        tup.cacheKey,
			RunID:           runID,
			PromptSHA256:    tup.promptSHA256,
			ParaphraseIdx:   tup.templateIdx,
			ReplicateIdx:    tup.replicateIdx,
			ProviderModelID: cfg.Model,
			JSONValid:       false,
			CreatedAt:       timeNow(),
			LatencyMS:       timeNow().Sub(start).Milliseconds(),
		}, false
	}
	metrics.RecordSample(o.Provider.ID(), cfg.Model, "success", timeNow().Sub(start).Seconds())
	metrics.RecordSampleTokens(o.Provider.ID(), cfg.Model, resp.Cost.InputTokens, resp.Cost.OutputTokens)
	metrics.RecordSampleCost(o.Provider.ID(), cfg.Model, resp.Cost.TotalCostUSD)

	outcome := compliance.Check(resp.RawJSON)
	metrics.RecordComplianceCheck(outcome.Compliant)

	sample := types.Sample{
		CacheKey:        tup.cacheKey,
		RunID:           runID,
		PromptSHA256:    tup.promptSHA256,
		ParaphraseIdx:   tup.templateIdx,
		ReplicateIdx:    tup.replicateIdx,
		ProviderModelID: resp.ProviderModelID,
		ResponseID:      resp.ResponseID,
		LatencyMS:       resp.Latency.Milliseconds(),
		JSONValid:       outcome.Compliant,
		CreatedAt:       timeNow(),
	}
	if outcome.Compliant {
		probTrue := outcome.ProbTrue
		logit := outcome.Logit
		sample.ProbTrue = &probTrue
		sample.Logit = &logit
	}

	_ = o.Cache.Put(ctx, &sample)

	return sample, false
}

func validateConfig(cfg types.RunConfig) error {
	if cfg.Claim == "" {
		return fmt.Errorf("orchestrator: claim is required")
	}
	if cfg.Model == "" {
		return fmt.Errorf("orchestrator: model is required")
	}
	if cfg.PromptVersion == "" {
		return fmt.Errorf("orchestrator: prompt_version is required")
	}
	if cfg.R <= 0 {
		return fmt.Errorf("orchestrator: R must be positive, got %d", cfg.R)
	}
	if cfg.B <= 0 {
		return fmt.Errorf("orchestrator: B must be positive, got %d", cfg.B)
	}
	if cfg.MaxOutputTokens <= 0 {
		return fmt.Errorf("orchestrator: max_output_tokens must be positive, got %d", cfg.MaxOutputTokens)
	}
	return nil
}

// computeRunID derives the stable recipe identity: two invocations with the
// same claim, model, prompt_version, K, and R always upsert the same run row.
func computeRunID(claim, model, promptVersion string, k, r int) string {
	raw := fmt.Sprintf("%s|%s|%s|%d|%d", claim, model, promptVersion, k, r)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// timeNow is a var so tests can override it; production uses time.Now.
var timeNow = time.Now
