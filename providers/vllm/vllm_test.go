package vllm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/beliefbench/providers"
)

func TestProvider_ScoreClaim_WithAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer deploy-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"id": "vllm-1",
			"model": "mixtral-8x7b",
			"choices": [{"message": {"role": "assistant", "content": "{\"prob_true\": 0.6}"}}]
		}`))
	}))
	defer server.Close()

	p := NewProvider("vllm-1", "mixtral-8x7b", server.URL, "deploy-key")

	resp, err := p.ScoreClaim(context.Background(), providers.ScoreRequest{Instructions: "x", UserText: "y"})
	require.NoError(t, err)
	assert.Equal(t, `{"prob_true": 0.6}`, string(resp.RawJSON))
}

func TestProvider_ScoreClaim_NoAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "{}"}}]}`))
	}))
	defer server.Close()

	p := NewProvider("vllm-1", "mixtral-8x7b", server.URL, "")
	_, err := p.ScoreClaim(context.Background(), providers.ScoreRequest{Instructions: "x", UserText: "y"})
	require.NoError(t, err)
}
