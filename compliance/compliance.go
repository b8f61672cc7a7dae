// Package compliance implements the strict compliance filter: a sample is
// compliant iff its payload parses as strict JSON, carries a numeric
// prob_true in [0,1], and contains no URL or citation marker in any text
// field. Non-compliant samples are excluded from aggregation but counted in
// the compliance denominator.
package compliance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"

	"github.com/xeipuuv/gojsonschema"

	"github.com/AltairaLabs/beliefbench/schema"
)

// Epsilon is the clamp applied to prob_true before it is mapped to logit
// space, keeping the logit finite at the 0/1 boundaries.
const Epsilon = 1e-6

// urlPattern matches the case-insensitive substrings that disqualify a
// sample: http://, https://, or www. anywhere in a text field.
var urlPattern = regexp.MustCompile(`(?i)(https?://|www\.)`)

// payloadSchema is the frozen shape a compliant payload must match: a single
// numeric prob_true field strictly between 0 and 1. Presence, type, and range
// are all enforced here rather than by hand.
var payloadSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"properties": {
		"prob_true": {
			"type": "number",
			"minimum": 0, "exclusiveMinimum": true,
			"maximum": 1, "exclusiveMaximum": true
		}
	},
	"required": ["prob_true"]
}`)

// Result is the outcome of checking one raw provider payload.
type Result struct {
	Compliant bool
	Reason    string

	// ProbTrue and Logit are set only when Compliant is true.
	ProbTrue float64
	Logit    float64
}

// Check parses raw as strict JSON and applies the compliance rules. It never
// returns an error: any parse failure or rule violation is reported as a
// non-compliant Result with Reason explaining why.
func Check(raw []byte) Result {
	if len(raw) == 0 {
		return Result{Compliant: false, Reason: "empty payload"}
	}

	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&payload); err != nil {
		return Result{Compliant: false, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	// Strict JSON: reject trailing content after the single top-level value.
	if dec.More() {
		return Result{Compliant: false, Reason: "trailing content after JSON value"}
	}

	validation, err := schema.ValidateJSONAgainstLoader(raw, payloadSchema)
	if err != nil {
		return Result{Compliant: false, Reason: fmt.Sprintf("schema validation error: %v", err)}
	}
	if !validation.Valid {
		return Result{Compliant: false, Reason: fmt.Sprintf("schema violation: %s", validation.Errors[0].Description)}
	}

	p, ok := payload["prob_true"].(float64)
	if !ok || math.IsNaN(p) {
		return Result{Compliant: false, Reason: "prob_true is not numeric"}
	}

	if containsURL(payload) {
		return Result{Compliant: false, Reason: "URL or citation marker present"}
	}

	clamped := clamp(p)
	return Result{
		Compliant: true,
		ProbTrue:  clamped,
		Logit:     logit(clamped),
	}
}

func clamp(p float64) float64 {
	if p < Epsilon {
		return Epsilon
	}
	if p > 1-Epsilon {
		return 1 - Epsilon
	}
	return p
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// containsURL walks every string value reachable from v (maps, slices,
// scalars) looking for a URL or citation marker.
func containsURL(v any) bool {
	switch val := v.(type) {
	case string:
		return urlPattern.MatchString(val)
	case map[string]any:
		for _, child := range val {
			if containsURL(child) {
				return true
			}
		}
	case []any:
		for _, child := range val {
			if containsURL(child) {
				return true
			}
		}
	}
	return false
}
