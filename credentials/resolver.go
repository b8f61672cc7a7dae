package credentials

import "os"

// DefaultEnvVars maps provider types to their default environment variable names,
// checked in order until one is non-empty.
var DefaultEnvVars = map[string][]string{
	"claude": {"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"},
	"openai": {"OPENAI_API_KEY", "OPENAI_TOKEN"},
	"gemini": {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"vllm":   {"VLLM_API_KEY"},
}

// ProviderHeaderConfig maps provider types to their API key header configuration.
var ProviderHeaderConfig = map[string]struct {
	HeaderName string
	Prefix     string
}{
	"claude": {HeaderName: "X-API-Key", Prefix: ""},
	"openai": {HeaderName: "Authorization", Prefix: "Bearer "},
	"vllm":   {HeaderName: "Authorization", Prefix: "Bearer "},
	"gemini": {HeaderName: "", Prefix: ""}, // Gemini uses a query param, not a header
}

// Resolve resolves an API-key credential for providerType from its default
// environment variables. Returns a NoOpCredential if none are set, so local
// backends (ollama, mock, replay) that need no authentication still work.
func Resolve(providerType string) Credential {
	envVars, ok := DefaultEnvVars[providerType]
	if !ok {
		return &NoOpCredential{}
	}

	for _, envVar := range envVars {
		if key := os.Getenv(envVar); key != "" {
			hdr := ProviderHeaderConfig[providerType]
			if hdr.HeaderName == "" {
				return NewAPIKeyCredential(key)
			}
			return NewAPIKeyCredential(key, WithHeaderName(hdr.HeaderName), WithPrefix(hdr.Prefix))
		}
	}
	return &NoOpCredential{}
}
