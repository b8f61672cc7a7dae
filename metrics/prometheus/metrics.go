// Package prometheus provides Prometheus metrics collection for measurement runs.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "beliefbench"

var (
	// runsActive is a gauge of currently executing runs.
	runsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Number of currently executing runs",
		},
	)

	// runDuration is a histogram of total run execution duration.
	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Histogram of total run execution duration in seconds",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"status"}, // status: success, error
	)

	// sampleDuration is a histogram of individual provider sample call duration.
	sampleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sample_duration_seconds",
			Help:      "Duration of individual provider sample calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	// samplesTotal is a counter of provider sample calls.
	samplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Total number of provider sample calls",
		},
		[]string{"provider", "model", "status"}, // status: success, error
	)

	// sampleTokensTotal is a counter of tokens consumed by sample calls.
	sampleTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_tokens_total",
			Help:      "Total tokens consumed by provider sample calls",
		},
		[]string{"provider", "model", "type"}, // type: input, output
	)

	// sampleCostTotal is a counter of total cost from sample calls.
	sampleCostTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_cost_total",
			Help:      "Total cost in USD from provider sample calls",
		},
		[]string{"provider", "model"},
	)

	// cacheLookupsTotal is a counter of sample cache lookups.
	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Total number of sample cache lookups",
		},
		[]string{"result"}, // result: hit, miss
	)

	// complianceChecksTotal is a counter of compliance filter outcomes.
	complianceChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compliance_checks_total",
			Help:      "Total number of compliance filter outcomes",
		},
		[]string{"status"}, // status: compliant, non_compliant
	)

	// bootstrapDuration is a histogram of estimator bootstrap resampling duration.
	bootstrapDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bootstrap_duration_seconds",
			Help:      "Duration of bootstrap resampling in the estimator, in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"claim_id"},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		runsActive,
		runDuration,
		sampleDuration,
		samplesTotal,
		sampleTokensTotal,
		sampleCostTotal,
		cacheLookupsTotal,
		complianceChecksTotal,
		bootstrapDuration,
	}
)

// RecordRunStart records a run start.
func RecordRunStart() {
	runsActive.Inc()
}

// RecordRunEnd records a run completion.
func RecordRunEnd(status string, durationSeconds float64) {
	runsActive.Dec()
	runDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordSample records a single provider sample call.
func RecordSample(provider, model, status string, durationSeconds float64) {
	sampleDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	samplesTotal.WithLabelValues(provider, model, status).Inc()
}

// RecordSampleTokens records token consumption for a sample call.
func RecordSampleTokens(provider, model string, inputTokens, outputTokens int) {
	if inputTokens > 0 {
		sampleTokensTotal.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		sampleTokensTotal.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

// RecordSampleCost records cost from a sample call.
func RecordSampleCost(provider, model string, cost float64) {
	if cost > 0 {
		sampleCostTotal.WithLabelValues(provider, model).Add(cost)
	}
}

// RecordCacheLookup records a sample cache lookup outcome.
func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	cacheLookupsTotal.WithLabelValues("miss").Inc()
}

// RecordComplianceCheck records a compliance filter outcome.
func RecordComplianceCheck(compliant bool) {
	if compliant {
		complianceChecksTotal.WithLabelValues("compliant").Inc()
		return
	}
	complianceChecksTotal.WithLabelValues("non_compliant").Inc()
}

// RecordBootstrapDuration records the duration of a bootstrap resampling pass for a claim.
func RecordBootstrapDuration(claimID string, durationSeconds float64) {
	bootstrapDuration.WithLabelValues(claimID).Observe(durationSeconds)
}
