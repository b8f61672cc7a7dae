package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AltairaLabs/beliefbench/credentials"
	"github.com/AltairaLabs/beliefbench/providers"
)

func TestNewAzureProvider(t *testing.T) {
	cred := &credentials.AzureCredential{}
	p := NewAzureProvider("openai-azure", "gpt-4o-deployment", cred, providers.Pricing{InputCostPer1K: 0.005})
	assert.Equal(t, "openai-azure", p.ID())
	assert.Equal(t, "gpt-4o-deployment", p.deployment)
}
