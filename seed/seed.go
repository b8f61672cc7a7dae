// Package seed derives the deterministic bootstrap seed used by the
// estimator, and the rotation offset used by the deterministic sampler. Both
// derivations hash a canonical string so that identical logical inputs
// always produce identical output regardless of map iteration order or
// sample arrival order.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RotationOffset computes offset = SHA-256(rotationKey) mod tBank, where
// rotationKey is the canonical (claim, model, promptVersion) tuple.
func RotationOffset(claim, model, promptVersion string, tBank int) int {
	if tBank <= 0 {
		return 0
	}
	key := strings.Join([]string{claim, model, promptVersion}, "|")
	sum := sha256.Sum256([]byte(key))
	n := binary.BigEndian.Uint64(sum[:8])
	return int(n % uint64(tBank))
}

// BootstrapSeed derives the lower 64 bits of SHA-256(canonical-string), where
// canonical-string concatenates claim, model, promptVersion, K, R, B,
// center, trim, and the sorted list of unique template fingerprints
// observed. The sort makes the derivation invariant to the order in which
// templates were encountered.
func BootstrapSeed(claim, model, promptVersion string, k, r, b int, center string, trim float64, templateHashes []string) int64 {
	sorted := uniqueSorted(templateHashes)

	parts := []string{
		claim,
		model,
		promptVersion,
		strconv.Itoa(k),
		strconv.Itoa(r),
		strconv.Itoa(b),
		center,
		strconv.FormatFloat(trim, 'f', -1, 64),
		strings.Join(sorted, ","),
	}
	canonical := strings.Join(parts, "|")

	sum := sha256.Sum256([]byte(canonical))
	return int64(binary.BigEndian.Uint64(sum[:8])) // #nosec G115 -- intentional truncation to a 64-bit seed
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// CanonicalString exposes the exact string BootstrapSeed hashes, for callers
// that need to log or debug the derivation.
func CanonicalString(claim, model, promptVersion string, k, r, b int, center string, trim float64, templateHashes []string) string {
	sorted := uniqueSorted(templateHashes)
	return fmt.Sprintf("%s|%s|%s|%d|%d|%d|%s|%s|%s",
		claim, model, promptVersion, k, r, b, center,
		strconv.FormatFloat(trim, 'f', -1, 64),
		strings.Join(sorted, ","))
}
