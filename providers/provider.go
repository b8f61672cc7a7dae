// Package providers implements the single-shot scoring backends the run
// orchestrator calls on a cache miss. Every backend exposes one operation,
// ScoreClaim, returning the provider's raw JSON payload, its reported model
// id, a response id for diagnostics, and call latency. There is no
// streaming, no tool calling, and no multi-turn history: the measurement
// core sends one composed prompt and reads back one JSON payload.
package providers

import (
	"context"
	"time"

	"github.com/AltairaLabs/beliefbench/types"
)

// ScoreRequest is the single request shape every backend accepts.
type ScoreRequest struct {
	// Instructions is system_text + schema_instructions as composed by the
	// prompt composer.
	Instructions string

	// UserText is the rendered user template for this template occurrence.
	UserText string

	MaxOutputTokens int

	// Seed, when non-nil, is forwarded to backends that support
	// provider-side deterministic sampling. Not all backends honor it.
	Seed *int64
}

// ScoreResponse is the single response shape every backend returns.
type ScoreResponse struct {
	// RawJSON is the provider's raw payload, to be handed to the compliance filter.
	RawJSON []byte

	ProviderModelID string
	ResponseID      string
	Latency         time.Duration

	Cost types.CostInfo
}

// Pricing defines cost per 1K tokens for input and output.
type Pricing struct {
	InputCostPer1K  float64
	OutputCostPer1K float64
}

// Provider is the contract every scoring backend implements.
type Provider interface {
	ID() string

	// ScoreClaim makes exactly one call per invocation. On invalid or
	// unparseable JSON, implementations retry once internally with small
	// jitter before giving up; a transport failure after the retry budget is
	// exhausted is surfaced as an error wrapping errs.ErrProviderUnavailable.
	ScoreClaim(ctx context.Context, req ScoreRequest) (ScoreResponse, error)

	// Close releases provider resources (e.g. pooled HTTP connections).
	Close() error
}
