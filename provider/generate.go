package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"blendassist/model"
)

const defaultGenerateURL = "http://localhost:5000/generate"

// GenerateProvider talks to a local inference server exposing a single
// POST /generate endpoint that answers with {"text": "..."}.
type GenerateProvider struct {
	httpClient *http.Client
	url        string
	model      string
}

// GenerateRequest is the JSON body posted to the /generate endpoint.
type GenerateRequest struct {
	Model        string        `json:"model"`
	Prompt       string        `json:"prompt"`
	ChatHistory  []WireMessage `json:"chat_history"`
	SystemPrompt string        `json:"system_prompt"`
	Temperature  float64       `json:"temperature"`
	TopP         float64       `json:"top_p"`
	MaxTokens    int           `json:"max_tokens"`
}

// GenerateResponse is the JSON body the /generate endpoint answers with.
// Text is a pointer so a missing field can be told apart from an empty reply.
type GenerateResponse struct {
	Text *string `json:"text"`
}

type generateErrorBody struct {
	Error any `json:"error"`
}

// NewGenerateProvider creates a provider for the /generate endpoint at endpointURL.
// An empty URL means http://localhost:5000/generate; an empty model means "llama".
func NewGenerateProvider(endpointURL, modelName string) (*GenerateProvider, error) {
	if endpointURL == "" {
		endpointURL = defaultGenerateURL
	}
	if modelName == "" {
		modelName = "llama"
	}

	parsed, err := url.Parse(endpointURL)
	if err != nil {
		return nil, fmt.Errorf("invalid generate endpoint URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid generate endpoint URL %q: scheme and host are required", endpointURL)
	}

	return &GenerateProvider{
		// No client timeout: the call blocks until the server answers or ctx ends
		httpClient: &http.Client{},
		url:        endpointURL,
		model:      modelName,
	}, nil
}

// Name implements model.Provider.
func (p *GenerateProvider) Name() string {
	return string(ProviderTypeGenerate)
}

// GetModel returns the model name sent with each request.
func (p *GenerateProvider) GetModel() string {
	return p.model
}

// Generate implements model.Provider with one POST to the endpoint.
func (p *GenerateProvider) Generate(ctx context.Context, req model.ModelRequest) (string, error) {
	body := GenerateRequest{
		Model:        p.model,
		Prompt:       req.Task,
		ChatHistory:  ConvertToWireMessages(req.History),
		SystemPrompt: req.SystemPrompt,
		Temperature:  req.Params.Temperature,
		TopP:         req.Params.TopP,
		MaxTokens:    req.Params.MaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", model.NetworkError(fmt.Errorf("generate request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", model.NetworkError(fmt.Errorf("failed to read generate response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", model.NetworkError(statusError(resp.StatusCode, respBody))
	}

	var parsed GenerateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", model.MalformedError(fmt.Errorf("failed to decode generate response: %w", err))
	}
	if parsed.Text == nil {
		return "", model.MalformedError(errors.New("generate response has no text field"))
	}

	return *parsed.Text, nil
}

// statusError describes a non-2xx reply, using the server's structured error when it sent one.
func statusError(status int, body []byte) error {
	var eb generateErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != nil {
		switch v := eb.Error.(type) {
		case string:
			return fmt.Errorf("generate endpoint returned %d: %s", status, v)
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				return fmt.Errorf("generate endpoint returned %d: %s", status, msg)
			}
		}
	}
	return fmt.Errorf("generate endpoint returned %d %s", status, http.StatusText(status))
}
