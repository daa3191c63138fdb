package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blendassist/model"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements model.Provider using Anthropic's official Go SDK.
type AnthropicProvider struct {
	client  *anthropic.Client
	model   anthropic.Model
	baseURL string
}

// NewAnthropicProvider creates a new Anthropic provider instance.
//
// Parameters:
//   - baseURL: Anthropic API base URL (default: "https://api.anthropic.com")
//   - apiKey: Anthropic API key (required)
//   - model: Model to use (default: "claude-sonnet-4-5-20250929")
//
// Returns an error if the API key is missing.
func NewAnthropicProvider(baseURL, apiKey, model string) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	anthropicModel := anthropic.ModelClaudeSonnet4_5_20250929
	if model != "" {
		anthropicModel = anthropic.Model(model)
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return &AnthropicProvider{
		client:  &client,
		model:   anthropicModel,
		baseURL: baseURL,
	}, nil
}

// Name implements model.Provider.
func (p *AnthropicProvider) Name() string {
	return string(ProviderTypeAnthropic)
}

// Generate implements model.Provider with one Messages call. The text blocks
// of the reply are concatenated.
func (p *AnthropicProvider) Generate(ctx context.Context, req model.ModelRequest) (string, error) {
	messages, system := convertToAnthropicMessages(req.Messages)

	maxTokens := int64(req.Params.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = int64(model.DefaultParams().MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) || isTransportError(err) {
			return "", model.NetworkError(fmt.Errorf("Anthropic request failed: %w", err))
		}
		return "", model.MalformedError(fmt.Errorf("Anthropic response invalid: %w", err))
	}

	if msg == nil {
		return "", model.MalformedError(errors.New("Anthropic response is empty"))
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", model.MalformedError(errors.New("Anthropic response has no text content"))
	}

	return text.String(), nil
}

// GetModel returns the model name sent with each request.
func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}
