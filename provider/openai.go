package provider

import (
	"context"
	"errors"
	"fmt"

	"blendassist/model"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIProvider implements model.Provider using OpenAI's official Go SDK.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
}

// NewOpenAIProvider creates a new OpenAI provider instance.
//
// Parameters:
//   - baseURL: OpenAI API base URL (default: "https://api.openai.com/v1")
//   - apiKey: OpenAI API key (required)
//   - model: Model to use (default: "gpt-4")
//
// Returns an error if the API key is missing.
func NewOpenAIProvider(baseURL, apiKey, model string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client:  client,
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Name implements model.Provider.
func (p *OpenAIProvider) Name() string {
	return string(ProviderTypeOpenAI)
}

// Generate implements model.Provider with one chat-completion call and returns
// the first choice's message content.
func (p *OpenAIProvider) Generate(ctx context.Context, req model.ModelRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: ConvertToOpenAIMessages(req.Messages),
		Model:    openai.ChatModel(p.model),
	}
	if req.Params.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.Params.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) || isTransportError(err) {
			return "", model.NetworkError(fmt.Errorf("OpenAI request failed: %w", err))
		}
		return "", model.MalformedError(fmt.Errorf("OpenAI response invalid: %w", err))
	}

	if completion == nil || len(completion.Choices) == 0 {
		return "", model.MalformedError(errors.New("OpenAI response has no choices"))
	}
	content := completion.Choices[0].Message.Content
	if content == "" {
		return "", model.MalformedError(errors.New("OpenAI response first choice has no content"))
	}

	return content, nil
}

// GetModel returns the model name sent with each request.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}
