package model

import "context"

// Provider abstracts one completion backend (the /generate endpoint, Ollama,
// OpenAI, Anthropic). A call is a single synchronous attempt: no retries,
// no streaming.
//
// Providers return *ProviderError (via NetworkError / MalformedError) so the
// model client can classify failures without knowing provider internals.
type Provider interface {
	// Generate sends the assembled request and returns the raw reply text.
	Generate(ctx context.Context, req ModelRequest) (string, error)

	// Name returns the provider ID used in logs ("generate", "ollama", "openai", "anthropic").
	Name() string
}
