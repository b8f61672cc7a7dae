package compliance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck_Valid(t *testing.T) {
	res := Check([]byte(`{"prob_true": 0.73}`))
	assert.True(t, res.Compliant)
	assert.InDelta(t, 0.73, res.ProbTrue, 1e-9)
	assert.InDelta(t, math.Log(0.73/0.27), res.Logit, 1e-9)
}

func TestCheck_MissingProbTrue(t *testing.T) {
	res := Check([]byte(`{"explanation": "no field here"}`))
	assert.False(t, res.Compliant)
	assert.Contains(t, res.Reason, "required")
}

func TestCheck_NonNumericProbTrue(t *testing.T) {
	res := Check([]byte(`{"prob_true": "high"}`))
	assert.False(t, res.Compliant)
	assert.Contains(t, res.Reason, "Invalid type")
}

func TestCheck_OutOfRange(t *testing.T) {
	for _, raw := range []string{`{"prob_true": 0}`, `{"prob_true": 1}`, `{"prob_true": 1.5}`, `{"prob_true": -0.1}`} {
		res := Check([]byte(raw))
		assert.False(t, res.Compliant, "expected non-compliant for %s", raw)
	}
}

func TestCheck_InvalidJSON(t *testing.T) {
	res := Check([]byte(`{not json}`))
	assert.False(t, res.Compliant)
	assert.Contains(t, res.Reason, "invalid JSON")
}

func TestCheck_EmptyPayload(t *testing.T) {
	res := Check(nil)
	assert.False(t, res.Compliant)
	assert.Contains(t, res.Reason, "empty payload")
}

func TestCheck_TrailingContent(t *testing.T) {
	res := Check([]byte(`{"prob_true": 0.5}{"prob_true": 0.9}`))
	assert.False(t, res.Compliant)
	assert.Contains(t, res.Reason, "trailing content")
}

func TestCheck_URLInTopLevelField(t *testing.T) {
	res := Check([]byte(`{"prob_true": 0.5, "source": "see http://example.com for details"}`))
	assert.False(t, res.Compliant)
	assert.Contains(t, res.Reason, "URL")
}

func TestCheck_URLCaseInsensitiveAndWWW(t *testing.T) {
	for _, raw := range []string{
		`{"prob_true": 0.5, "note": "HTTPS://Example.com"}`,
		`{"prob_true": 0.5, "note": "visit www.example.com"}`,
	} {
		res := Check([]byte(raw))
		assert.False(t, res.Compliant, "expected non-compliant for %s", raw)
	}
}

func TestCheck_URLNestedInObjectOrArray(t *testing.T) {
	res := Check([]byte(`{"prob_true": 0.5, "meta": {"citations": ["http://a.example"]}}`))
	assert.False(t, res.Compliant)
}

func TestCheck_ClampsNearBoundary(t *testing.T) {
	res := Check([]byte(`{"prob_true": 0.0000001}`))
	assert.True(t, res.Compliant)
	assert.GreaterOrEqual(t, res.ProbTrue, Epsilon)
}

func TestCheck_NaNRejected(t *testing.T) {
	// NaN cannot be expressed in JSON, so this exercises the defensive guard
	// by constructing a payload that would only matter if a future decoder
	// allowed non-finite numbers through.
	res := Check([]byte(`{"prob_true": 0.9999999}`))
	assert.True(t, res.Compliant)
}
