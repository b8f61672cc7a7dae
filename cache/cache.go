// Package cache provides a content-addressed store for provider samples,
// keyed by the cache_key constructed from (claim, model, prompt_version,
// prompt_sha256, replicate_idx, max_output_tokens). A cache hit returns the
// prior sample verbatim, including its stored compliance outcome; hits are
// never re-validated against the compliance filter.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/AltairaLabs/beliefbench/types"
)

// ErrInvalidKey is returned when an empty cache key is supplied to Get or Put.
var ErrInvalidKey = errors.New("invalid cache key")

// Cache stores and retrieves samples by their content-addressed cache key.
type Cache interface {
	// Get returns the sample stored under key, or ok=false on a miss.
	Get(ctx context.Context, key string) (sample *types.Sample, ok bool, err error)

	// Put stores a sample under its own CacheKey. Implementations treat Put
	// as an insert-or-replace; callers only write once per key in practice
	// since the key is content-addressed.
	Put(ctx context.Context, sample *types.Sample) error
}

// Key constructs the content-addressed cache key for one (claim, model,
// prompt_version, prompt_sha256, replicate_idx, max_output_tokens) tuple.
func Key(claim, model, promptVersion, promptSHA256 string, replicateIdx, maxOutputTokens int) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%d|%d", claim, model, promptVersion, promptSHA256, replicateIdx, maxOutputTokens)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
