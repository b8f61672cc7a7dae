package estimator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/beliefbench/errs"
)

func logitOf(p float64) float64 {
	return math.Log(p / (1 - p))
}

func eightTemplatesAt(p float64) map[string][]float64 {
	m := make(map[string][]float64, 8)
	for i := 0; i < 8; i++ {
		key := string(rune('a' + i))
		m[key] = []float64{logitOf(p)}
	}
	return m
}

func TestEstimate_NoSamples(t *testing.T) {
	_, err := Estimate(map[string][]float64{}, Config{B: 100, BootstrapSeed: 1})
	assert.ErrorIs(t, err, errs.ErrNoValidSamples)
}

func TestEstimate_CIContainsPoint(t *testing.T) {
	samples := map[string][]float64{
		"t1": {logitOf(0.6), logitOf(0.65)},
		"t2": {logitOf(0.55)},
		"t3": {logitOf(0.7)},
		"t4": {logitOf(0.5)},
		"t5": {logitOf(0.8)},
		"t6": {logitOf(0.52)},
	}
	res, err := Estimate(samples, Config{B: 2000, BootstrapSeed: 42})
	require.NoError(t, err)

	assert.LessOrEqual(t, res.CILo, res.ProbTrueRPL)
	assert.LessOrEqual(t, res.ProbTrueRPL, res.CIHi)
	assert.Greater(t, res.CIWidth, 0.0)
	assert.LessOrEqual(t, res.CIWidth, 1.0)
}

func TestEstimate_DeterministicForFixedSeed(t *testing.T) {
	samples := map[string][]float64{
		"t1": {logitOf(0.6)},
		"t2": {logitOf(0.5)},
		"t3": {logitOf(0.7)},
		"t4": {logitOf(0.55)},
		"t5": {logitOf(0.65)},
	}

	a, err := Estimate(samples, Config{B: 500, BootstrapSeed: 7})
	require.NoError(t, err)
	b, err := Estimate(samples, Config{B: 500, BootstrapSeed: 7})
	require.NoError(t, err)

	assert.Equal(t, a.CILo, b.CILo)
	assert.Equal(t, a.CIHi, b.CIHi)
	assert.Equal(t, a.ProbTrueRPL, b.ProbTrueRPL)
}

func TestEstimate_SingleTemplateCluster(t *testing.T) {
	samples := map[string][]float64{
		"only": {logitOf(0.9), logitOf(0.85), logitOf(0.95)},
	}
	res, err := Estimate(samples, Config{B: 200, BootstrapSeed: 1})
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.TemplateIQRLogit)
	assert.Equal(t, 1, res.NTemplates)
}

func TestEstimate_EqualByTemplateInvariance(t *testing.T) {
	base := map[string][]float64{
		"t1": {logitOf(0.6)},
		"t2": {logitOf(0.5)},
		"t3": {logitOf(0.7)},
		"t4": {logitOf(0.55)},
		"t5": {logitOf(0.65)},
	}
	replicated := map[string][]float64{
		"t1": {logitOf(0.6), logitOf(0.6), logitOf(0.6), logitOf(0.6), logitOf(0.6), logitOf(0.6), logitOf(0.6), logitOf(0.6), logitOf(0.6), logitOf(0.6)},
		"t2": {logitOf(0.5)},
		"t3": {logitOf(0.7)},
		"t4": {logitOf(0.55)},
		"t5": {logitOf(0.65)},
	}

	a, err := Estimate(base, Config{B: 1, BootstrapSeed: 1})
	require.NoError(t, err)
	b, err := Estimate(replicated, Config{B: 1, BootstrapSeed: 1})
	require.NoError(t, err)

	assert.InDelta(t, a.ProbTrueRPL, b.ProbTrueRPL, 1e-9)
}

func TestEstimate_BoundaryProbabilityClampedAllOnes(t *testing.T) {
	samples := eightTemplatesAt(1 - 1e-6)
	res, err := Estimate(samples, Config{B: 500, BootstrapSeed: 3})
	require.NoError(t, err)

	assert.Greater(t, res.ProbTrueRPL, 0.99)
	assert.Equal(t, 0.0, res.TemplateIQRLogit)
}

func TestEstimate_BelowTrimThresholdUsesPlainMean(t *testing.T) {
	samples := map[string][]float64{
		"t1": {logitOf(0.5)},
		"t2": {logitOf(0.6)},
		"t3": {logitOf(0.7)},
	}
	res, err := Estimate(samples, Config{B: 100, BootstrapSeed: 1})
	require.NoError(t, err)

	expected := (logitOf(0.5) + logitOf(0.6) + logitOf(0.7)) / 3
	assert.InDelta(t, 1/(1+math.Exp(-expected)), res.ProbTrueRPL, 1e-9)
}
