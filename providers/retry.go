package providers

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"
)

// retryJitterBase and retryJitterSpread bound the small delay inserted
// before the one allowed retry on invalid JSON.
const (
	retryJitterBase   = 50 * time.Millisecond
	retryJitterSpread = 150 * time.Millisecond
)

// retryingProvider wraps a Provider with the retry-once-on-invalid-JSON
// policy: a ScoreClaim call whose raw payload does not parse as a JSON
// object carrying a numeric prob_true is retried once, after a small jitter
// delay. If the retry also fails the well-formedness check, ScoreClaim
// returns its response with RawJSON cleared instead of an error; the
// compliance filter then records the attempt as non-compliant rather than
// aborting the run. Transport-level errors are never retried here and
// propagate immediately.
type retryingProvider struct {
	inner Provider
}

// WithRetry wraps p with the adapter's retry-once policy on malformed JSON.
func WithRetry(p Provider) Provider {
	return &retryingProvider{inner: p}
}

func (r *retryingProvider) ID() string { return r.inner.ID() }

func (r *retryingProvider) Close() error { return r.inner.Close() }

func (r *retryingProvider) ScoreClaim(ctx context.Context, req ScoreRequest) (ScoreResponse, error) {
	resp, err := r.inner.ScoreClaim(ctx, req)
	if err != nil {
		return ScoreResponse{}, err
	}
	if looksLikeScoredJSON(resp.RawJSON) {
		return resp, nil
	}

	jitter := retryJitterBase + time.Duration(rand.Int64N(int64(retryJitterSpread)))
	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		return ScoreResponse{}, ctx.Err()
	}

	resp, err = r.inner.ScoreClaim(ctx, req)
	if err != nil {
		return ScoreResponse{}, err
	}
	if !looksLikeScoredJSON(resp.RawJSON) {
		resp.RawJSON = nil
	}
	return resp, nil
}

// looksLikeScoredJSON is a cheap pre-check distinct from the compliance
// filter's authoritative parse: it only asks whether the payload is worth a
// second attempt, not whether it will ultimately pass compliance (URL
// filtering, range clamping) once collected.
func looksLikeScoredJSON(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return false
	}
	v, ok := payload["prob_true"]
	if !ok {
		return false
	}
	_, ok = v.(float64)
	return ok
}
