package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/beliefbench/credentials"
)

func TestNewBaseProvider(t *testing.T) {
	client := &http.Client{Timeout: 30 * time.Second}
	base := NewBaseProvider("test-provider", client)

	assert.Equal(t, "test-provider", base.ID())
	assert.Same(t, client, base.GetHTTPClient())
}

func TestExtractAPIKey(t *testing.T) {
	cred := credentials.NewAPIKeyCredential("secret-value")
	assert.Equal(t, "secret-value", ExtractAPIKey(cred))

	assert.Equal(t, "", ExtractAPIKey(nil))
	assert.Equal(t, "", ExtractAPIKey(&credentials.NoOpCredential{}))
}

func TestNewBaseProviderWithCredential(t *testing.T) {
	cred := credentials.NewAPIKeyCredential("api-key-value")

	base, apiKey := NewBaseProviderWithCredential("test-id", 60*time.Second, cred)

	assert.Equal(t, "api-key-value", apiKey)
	assert.Equal(t, "test-id", base.ID())
	require.NotNil(t, base.GetHTTPClient())
	assert.Equal(t, 60*time.Second, base.GetHTTPClient().Timeout)
}

func TestBaseProvider_Close(t *testing.T) {
	client := &http.Client{Timeout: 30 * time.Second}
	base := NewBaseProvider("test-provider", client)
	assert.NoError(t, base.Close())

	baseNil := BaseProvider{}
	assert.NoError(t, baseNil.Close())
}

func TestCheckHTTPError(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		responseBody  string
		expectError   bool
		errorContains string
	}{
		{
			name:         "Success status returns no error",
			statusCode:   http.StatusOK,
			responseBody: `{"success": true}`,
			expectError:  false,
		},
		{
			name:          "400 Bad Request returns error",
			statusCode:    http.StatusBadRequest,
			responseBody:  `{"error": "invalid request"}`,
			expectError:   true,
			errorContains: "400",
		},
		{
			name:          "401 Unauthorized returns error",
			statusCode:    http.StatusUnauthorized,
			responseBody:  `{"error": "unauthorized"}`,
			expectError:   true,
			errorContains: "401",
		},
		{
			name:          "500 Internal Server Error returns error",
			statusCode:    http.StatusInternalServerError,
			responseBody:  `{"error": "server error"}`,
			expectError:   true,
			errorContains: "500",
		},
		{
			name:          "Error includes response body",
			statusCode:    http.StatusBadRequest,
			responseBody:  `{"error": "specific error message"}`,
			expectError:   true,
			errorContains: "specific error message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			resp, err := http.Get(server.URL)
			require.NoError(t, err)

			err = CheckHTTPError(resp, server.URL)

			if tt.expectError {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.errorContains))
			} else {
				assert.NoError(t, err)
				defer resp.Body.Close()
			}
		})
	}
}

func TestBaseProvider_Integration(t *testing.T) {
	t.Run("realistic error handling flow", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_request","message":"The request was malformed"}`))
		}))
		defer server.Close()

		cred := credentials.NewAPIKeyCredential("test-key")
		base, apiKey := NewBaseProviderWithCredential("test", 30*time.Second, cred)
		assert.Equal(t, "test-key", apiKey)

		resp, err := base.GetHTTPClient().Get(server.URL)
		require.NoError(t, err)

		err = CheckHTTPError(resp, server.URL)
		assert.Error(t, err)
	})

	t.Run("realistic success flow via MakeJSONRequest", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"response":"success"}`))
		}))
		defer server.Close()

		cred := credentials.NewAPIKeyCredential("test-key")
		base, _ := NewBaseProviderWithCredential("test", 30*time.Second, cred)

		raw, err := base.MakeJSONRequest(
			context.Background(),
			server.URL,
			map[string]string{"claim": "water boils at 100C at sea level"},
			RequestHeaders{"Content-Type": "application/json"},
			"test",
		)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "success")
	})
}
