// Package types defines the shared data model for a measurement run: the
// inputs that identify a recipe, the sample rows a run collects, and the
// aggregate result returned to callers. Exported fields carry json tags
// matching the documented external payload and persisted column names, so
// the run entrypoint's JSON output and the SQL-backed store agree with
// callers outside the module.
package types

import (
	"encoding/json"
	"time"
)

// Claim is the factual statement a run measures belief in. It is a plain
// string alias, not a distinct type, so every existing string-typed caller
// keeps working unchanged.
type Claim = string

// RunConfig is the caller-supplied configuration for a single run invocation.
type RunConfig struct {
	Claim Claim  `json:"claim"`
	Model string `json:"model"`

	// PromptVersion selects a prompt bank by its stable version string.
	PromptVersion string `json:"prompt_version"`

	K int `json:"k"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`

	MaxOutputTokens int `json:"max_output_tokens"`
	MaxPromptChars  int `json:"max_prompt_chars"`

	// Seed overrides the derived bootstrap seed when non-nil.
	Seed *int64 `json:"seed,omitempty"`

	// Mock selects the deterministic stub provider instead of a real backend.
	Mock bool `json:"mock"`

	// NoCache bypasses the sample cache, forcing a fresh provider call for every tuple.
	NoCache bool `json:"no_cache"`
}

// Sample is one immutable provider call result for a given template occurrence
// and replicate. CacheKey is unique across all runs; Logit is non-nil iff
// ProbTrue is non-nil and the sample passed the compliance filter.
type Sample struct {
	CacheKey string `json:"cache_key"`
	RunID    string `json:"run_id"`

	PromptSHA256  string `json:"prompt_sha256"`
	ParaphraseIdx int    `json:"paraphrase_idx"`
	ReplicateIdx  int    `json:"replicate_idx"`

	ProbTrue *float64 `json:"prob_true,omitempty"`
	Logit    *float64 `json:"logit,omitempty"`

	ProviderModelID string `json:"provider_model_id"`
	ResponseID      string `json:"response_id"`
	LatencyMS       int64  `json:"latency_ms"`
	JSONValid       bool   `json:"json_valid"`

	CreatedAt time.Time `json:"created_at"`
}

// SamplingPlan is the deterministic sampler's output for a run.
type SamplingPlan struct {
	K              int            `json:"k"`
	R              int            `json:"r"`
	T              int            `json:"t"`
	TBank          int            `json:"t_bank"`
	RotationOffset int            `json:"rotation_offset"`
	TplIndices     []int          `json:"tpl_indices"`
	Seq            []int          `json:"seq"`
	CountsByTemplate map[int]int  `json:"counts_by_template"`
	ImbalanceRatio   float64      `json:"imbalance_ratio"`
}

// AggregationInfo describes how the point estimate and interval were produced.
type AggregationInfo struct {
	Method        string `json:"method"`
	B             int    `json:"b"`
	Center        string `json:"center"`
	Trim          float64 `json:"trim"`
	BootstrapSeed int64   `json:"bootstrap_seed"`
	NTemplates    int     `json:"n_templates"`
	CountsByTemplate map[string]int `json:"counts_by_template"`
	ImbalanceRatio   float64        `json:"imbalance_ratio"`
}

// Aggregates holds the statistical outputs of a run. CILo/CIHi marshal as
// the documented ci95=[lo,hi] pair rather than as separate keys; the SQL
// persisted columns for the same values live on RunAggregate instead.
type Aggregates struct {
	ProbTrueRPL       float64 `json:"prob_true_rpl"`
	CILo              float64 `json:"-"`
	CIHi              float64 `json:"-"`
	CIWidth           float64 `json:"ci_width"`
	TemplateIQRLogit  float64 `json:"template_iqr_logit"`
	StabilityScore    float64 `json:"stability_score"`
	IsStable          bool    `json:"is_stable"`
	RPLComplianceRate float64 `json:"rpl_compliance_rate"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
}

// aggregatesWire mirrors Aggregates for JSON encoding, substituting the
// ci95=[lo,hi] pair for the CILo/CIHi fields.
type aggregatesWire struct {
	ProbTrueRPL       float64    `json:"prob_true_rpl"`
	CI95              [2]float64 `json:"ci95"`
	CIWidth           float64    `json:"ci_width"`
	TemplateIQRLogit  float64    `json:"template_iqr_logit"`
	StabilityScore    float64    `json:"stability_score"`
	IsStable          bool       `json:"is_stable"`
	RPLComplianceRate float64    `json:"rpl_compliance_rate"`
	CacheHitRate      float64    `json:"cache_hit_rate"`
}

// MarshalJSON emits ci_lo/ci_hi as the documented ci95=[lo,hi] pair.
func (a Aggregates) MarshalJSON() ([]byte, error) {
	return json.Marshal(aggregatesWire{
		ProbTrueRPL:       a.ProbTrueRPL,
		CI95:              [2]float64{a.CILo, a.CIHi},
		CIWidth:           a.CIWidth,
		TemplateIQRLogit:  a.TemplateIQRLogit,
		StabilityScore:    a.StabilityScore,
		IsStable:          a.IsStable,
		RPLComplianceRate: a.RPLComplianceRate,
		CacheHitRate:      a.CacheHitRate,
	})
}

// UnmarshalJSON reads the ci95=[lo,hi] pair back into CILo/CIHi.
func (a *Aggregates) UnmarshalJSON(data []byte) error {
	var wire aggregatesWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*a = Aggregates{
		ProbTrueRPL:       wire.ProbTrueRPL,
		CILo:              wire.CI95[0],
		CIHi:              wire.CI95[1],
		CIWidth:           wire.CIWidth,
		TemplateIQRLogit:  wire.TemplateIQRLogit,
		StabilityScore:    wire.StabilityScore,
		IsStable:          wire.IsStable,
		RPLComplianceRate: wire.RPLComplianceRate,
		CacheHitRate:      wire.CacheHitRate,
	}
	return nil
}

// RunResult is the structured payload returned by the run entrypoint.
type RunResult struct {
	RunID       string `json:"run_id"`
	ExecutionID string `json:"execution_id"`

	Config RunConfig `json:"config"`

	Aggregates  Aggregates      `json:"aggregates"`
	Aggregation AggregationInfo `json:"aggregation"`
	Sampling    SamplingPlan    `json:"sampling"`

	Samples []Sample `json:"samples"`

	CreatedAt time.Time `json:"created_at"`
}

// RunAggregate is the durable, upsert-on-recipe row persisted to the runs table.
type RunAggregate struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	Claim         Claim  `json:"claim"`
	Model         string `json:"model"`
	PromptVersion string `json:"prompt_version"`
	K             int    `json:"k"`
	R             int    `json:"r"`
	T             int    `json:"t"`
	B             int    `json:"b"`
	Seed          int64  `json:"seed"`
	BootstrapSeed int64  `json:"bootstrap_seed"`

	ProbTrueRPL       float64 `json:"prob_true_rpl"`
	CILo              float64 `json:"ci_lo"`
	CIHi              float64 `json:"ci_hi"`
	CIWidth           float64 `json:"ci_width"`
	TemplateIQRLogit  float64 `json:"template_iqr_logit"`
	StabilityScore    float64 `json:"stability_score"`
	ImbalanceRatio    float64 `json:"imbalance_ratio"`
	RPLComplianceRate float64 `json:"rpl_compliance_rate"`
	CacheHitRate      float64 `json:"cache_hit_rate"`

	ConfigJSON           string `json:"config_json"`
	SamplerJSON          string `json:"sampler_json"`
	CountsByTemplateJSON string `json:"counts_by_template_json"`
	PromptCharLenMax     int    `json:"prompt_char_len_max"`
}

// CostInfo summarizes provider-reported cost and token usage for one sample call.
type CostInfo struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}
