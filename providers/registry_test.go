package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterGetList(t *testing.T) {
	r := NewRegistry()
	p := NewMockProvider("model-a")
	r.Register(p)

	got, ok := r.Get("mock")
	assert.True(t, ok)
	assert.Same(t, p, got)

	assert.Equal(t, []string{"mock"}, r.List())
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()
	r.Register(NewMockProvider("model-a"))
	assert.NoError(t, r.Close())
}

func TestCreateProviderFromSpec_Mock(t *testing.T) {
	p, err := CreateProviderFromSpec(ProviderSpec{Type: "mock", Model: "model-a"})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ID())

	_, err = p.ScoreClaim(context.Background(), ScoreRequest{Instructions: "x", UserText: "y"})
	assert.NoError(t, err)
}

func TestCreateProviderFromSpec_Unsupported(t *testing.T) {
	_, err := CreateProviderFromSpec(ProviderSpec{Type: "does-not-exist"})
	require.Error(t, err)
	var unsupported *UnsupportedProviderError
	assert.ErrorAs(t, err, &unsupported)
}

func TestRegisterProviderFactory_DefaultBaseURL(t *testing.T) {
	var captured string
	RegisterProviderFactory("test-fixture", func(spec ProviderSpec) (Provider, error) {
		captured = spec.BaseURL
		return NewMockProvider(spec.Model), nil
	})
	defaultBaseURLs["test-fixture"] = "https://fixture.example"
	defer delete(defaultBaseURLs, "test-fixture")

	_, err := CreateProviderFromSpec(ProviderSpec{Type: "test-fixture", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "https://fixture.example", captured)
}
