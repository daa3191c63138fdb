// Package provider implements the completion backends behind model.Provider.
//
// Four providers exist, grouped under the two backends the model client knows:
//
//   - local:  GenerateProvider (plain POST /generate endpoint) or OllamaProvider
//   - hosted: OpenAIProvider (chat completions) or AnthropicProvider (messages)
//
// Every provider makes exactly one synchronous, non-streaming call per Generate
// and reports failures as *model.ProviderError so the client can classify them
// as network or unexpected without knowing the SDK in use. SDK-level retries are
// disabled.
//
// # Usage
//
//	p, err := provider.NewProvider(provider.Config{
//	    Type:    provider.ProviderTypeGenerate,
//	    BaseURL: "http://localhost:5000/generate",
//	    Model:   "llama",
//	})
//	if err != nil {
//	    // handle error
//	}
//	text, err := p.Generate(ctx, req)
package provider

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeGenerate  ProviderType = "generate"
	ProviderTypeOllama    ProviderType = "ollama"
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderTypeAnthropic ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // hosted providers only
}
