package provider

import (
	"context"
	"fmt"

	"blendassist/model"
	"blendassist/ollama"
)

// OllamaProvider wraps ollama.Client to implement model.Provider for a local Ollama server.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// Parameters:
//   - baseURL: The Ollama server URL (e.g., "http://localhost:11434").
//     If empty, defaults to "http://localhost:11434".
//   - model: The model name to use (e.g., "llama3.1:latest").
//     If empty, defaults to "llama3.1:latest".
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL, model)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return &OllamaProvider{
		client: client,
	}, nil
}

// Name implements model.Provider.
func (p *OllamaProvider) Name() string {
	return string(ProviderTypeOllama)
}

// Generate implements model.Provider by sending the assembled messages to /api/chat.
func (p *OllamaProvider) Generate(ctx context.Context, req model.ModelRequest) (string, error) {
	opts := ollama.Options{
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
		NumPredict:  req.Params.MaxTokens,
	}

	text, err := p.client.Chat(ctx, ConvertToOllamaMessages(req.Messages), opts)
	if err != nil {
		if ollama.IsTransportError(err) {
			return "", model.NetworkError(fmt.Errorf("Ollama request failed: %w", err))
		}
		return "", model.MalformedError(fmt.Errorf("Ollama response invalid: %w", err))
	}

	return text, nil
}

// GetModel returns the model name sent with each request.
func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}
