package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/beliefbench/providers"
)

func TestProvider_ScoreClaim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, chatCompletionsPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "ollama-1",
			"model": "llama3",
			"choices": [{"message": {"role": "assistant", "content": "{\"prob_true\": 0.5}"}}]
		}`))
	}))
	defer server.Close()

	p := NewProvider("ollama-1", "llama3", server.URL)

	resp, err := p.ScoreClaim(context.Background(), providers.ScoreRequest{
		Instructions: "respond with JSON",
		UserText:     "Is the claim true?",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"prob_true": 0.5}`, string(resp.RawJSON))
	assert.Equal(t, "llama3", resp.ProviderModelID)
	assert.Equal(t, 0.0, resp.Cost.TotalCostUSD)
}
