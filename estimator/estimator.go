// Package estimator implements the frozen logit-space, equal-by-template,
// trimmed-center, cluster bootstrap estimator. One effective vote is cast per
// template regardless of how many replicate samples it produced, which keeps
// a template with many replicates from dominating the estimate.
package estimator

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/AltairaLabs/beliefbench/errs"
)

// Trim is the fraction of template means dropped symmetrically from each
// tail before averaging, frozen at the 20% (single min/max at T=5) policy
// described by the estimator's design notes.
const Trim = 0.2

// trimThreshold is the template count at and above which the single-min/
// single-max trim applies. Below it, the center is a plain mean.
const trimThreshold = 5

// Config bounds the estimator's bootstrap run.
type Config struct {
	B             int
	BootstrapSeed int64
}

// Result is the estimator's output for one run.
type Result struct {
	ProbTrueRPL      float64
	CILo             float64
	CIHi             float64
	CIWidth          float64
	TemplateIQRLogit float64
	NTemplates       int
}

// Estimate runs the frozen estimator over samplesByTemplate, a map from
// prompt_sha256 to the logits of the compliant samples observed for that
// template. It returns errs.ErrNoValidSamples if the map is empty.
func Estimate(samplesByTemplate map[string][]float64, cfg Config) (Result, error) {
	if len(samplesByTemplate) == 0 {
		return Result{}, errs.ErrNoValidSamples
	}

	templateKeys := sortedKeys(samplesByTemplate)

	templateMeans := make([]float64, len(templateKeys))
	for i, key := range templateKeys {
		templateMeans[i] = mean(samplesByTemplate[key])
	}

	pointLogit := center(templateMeans)
	probTrueRPL := sigmoid(pointLogit)

	rng := rand.New(rand.NewPCG(uint64(cfg.BootstrapSeed), uint64(cfg.BootstrapSeed>>32))) // #nosec G115 -- deterministic seed split, not cryptographic
	centers := bootstrap(templateKeys, samplesByTemplate, cfg.B, rng)

	sort.Float64s(centers)
	ciLoLogit := stat.Quantile(0.025, stat.LinInterp, centers, nil)
	ciHiLogit := stat.Quantile(0.975, stat.LinInterp, centers, nil)

	ciLo := sigmoid(ciLoLogit)
	ciHi := sigmoid(ciHiLogit)

	iqr := interquartileRange(templateMeans)

	return Result{
		ProbTrueRPL:      probTrueRPL,
		CILo:             ciLo,
		CIHi:             ciHi,
		CIWidth:          ciHi - ciLo,
		TemplateIQRLogit: iqr,
		NTemplates:       len(templateKeys),
	}, nil
}

// bootstrap draws B cluster-bootstrap resamples: for each resample, draw
// len(templateKeys) templates with replacement, then for each drawn template
// resample its replicate logits with replacement and take the template mean;
// apply center() to the resulting means.
func bootstrap(templateKeys []string, samplesByTemplate map[string][]float64, b int, rng *rand.Rand) []float64 {
	n := len(templateKeys)
	centers := make([]float64, b)

	for i := 0; i < b; i++ {
		drawnMeans := make([]float64, n)
		for j := 0; j < n; j++ {
			tplKey := templateKeys[rng.IntN(n)]
			logits := samplesByTemplate[tplKey]
			drawnMeans[j] = resampleMean(logits, rng)
		}
		centers[i] = center(drawnMeans)
	}

	return centers
}

func resampleMean(logits []float64, rng *rand.Rand) float64 {
	sum := 0.0
	for i := 0; i < len(logits); i++ {
		sum += logits[rng.IntN(len(logits))]
	}
	return sum / float64(len(logits))
}

// center applies the frozen trim policy: at T>=5, drop the single min and
// single max and average the remainder; below that, average everything.
func center(values []float64) float64 {
	if len(values) < trimThreshold {
		return mean(values)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	trimmed := sorted[1 : len(sorted)-1]
	return mean(trimmed)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func interquartileRange(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	return q3 - q1
}

func sigmoid(logit float64) float64 {
	return 1 / (1 + math.Exp(-logit))
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
