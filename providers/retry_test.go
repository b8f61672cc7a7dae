package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider returns a canned response/error for each successive call,
// recording how many times ScoreClaim was invoked.
type scriptedProvider struct {
	responses []ScoreResponse
	errs      []error
	calls     int
}

func (s *scriptedProvider) ID() string   { return "scripted" }
func (s *scriptedProvider) Close() error { return nil }
func (s *scriptedProvider) ScoreClaim(_ context.Context, _ ScoreRequest) (ScoreResponse, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp ScoreResponse
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

func TestWithRetry_FirstCallValid(t *testing.T) {
	inner := &scriptedProvider{responses: []ScoreResponse{{RawJSON: []byte(`{"prob_true": 0.5}`)}}}
	p := WithRetry(inner)

	resp, err := p.ScoreClaim(context.Background(), ScoreRequest{})
	require.NoError(t, err)
	assert.Equal(t, `{"prob_true": 0.5}`, string(resp.RawJSON))
	assert.Equal(t, 1, inner.calls)
}

func TestWithRetry_SecondCallRecovers(t *testing.T) {
	inner := &scriptedProvider{responses: []ScoreResponse{
		{RawJSON: []byte(`not json`)},
		{RawJSON: []byte(`{"prob_true": 0.7}`)},
	}}
	p := WithRetry(inner)

	resp, err := p.ScoreClaim(context.Background(), ScoreRequest{})
	require.NoError(t, err)
	assert.Equal(t, `{"prob_true": 0.7}`, string(resp.RawJSON))
	assert.Equal(t, 2, inner.calls)
}

func TestWithRetry_BothCallsInvalid(t *testing.T) {
	inner := &scriptedProvider{responses: []ScoreResponse{
		{RawJSON: []byte(`not json`)},
		{RawJSON: []byte(`{"no_prob": true}`)},
	}}
	p := WithRetry(inner)

	resp, err := p.ScoreClaim(context.Background(), ScoreRequest{})
	require.NoError(t, err)
	assert.Nil(t, resp.RawJSON)
	assert.Equal(t, 2, inner.calls)
}

func TestWithRetry_TransportErrorPropagates(t *testing.T) {
	inner := &scriptedProvider{errs: []error{assert.AnError}}
	p := WithRetry(inner)

	_, err := p.ScoreClaim(context.Background(), ScoreRequest{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, inner.calls)
}

func TestWithRetry_IDAndClose(t *testing.T) {
	inner := &scriptedProvider{}
	p := WithRetry(inner)
	assert.Equal(t, "scripted", p.ID())
	assert.NoError(t, p.Close())
}
