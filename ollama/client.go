package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

type Client struct {
	client *api.Client
	model  string
}

func NewClient(baseURL, model string) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1:latest"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid Ollama URL %q: scheme and host are required", baseURL)
	}

	return &Client{
		client: api.NewClient(parsedURL, http.DefaultClient),
		model:  model,
	}, nil
}

// Options are the sampling options passed through to Ollama.
type Options struct {
	Temperature float64
	TopP        float64
	NumPredict  int
}

func (o Options) toMap() map[string]any {
	opts := map[string]any{
		"temperature": o.Temperature,
		"top_p":       o.TopP,
	}
	if o.NumPredict > 0 {
		opts["num_predict"] = o.NumPredict
	}
	return opts
}

// Chat sends a single non-streaming chat request and returns the reply content.
func (c *Client) Chat(ctx context.Context, messages []api.Message, opts Options) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options:  opts.toMap(),
	}

	var content strings.Builder
	var done bool
	respFunc := func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		done = done || resp.Done
		return nil
	}

	if err := c.client.Chat(ctx, req, respFunc); err != nil {
		return "", err
	}
	if !done && content.Len() == 0 {
		return "", ErrEmptyResponse
	}

	return content.String(), nil
}

// ErrEmptyResponse is returned when the server answered without any message.
var ErrEmptyResponse = errors.New("ollama returned no message")

// IsTransportError reports whether err came from reaching the server rather than from its payload.
// Non-2xx statuses count as transport errors.
func IsTransportError(err error) bool {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func (c *Client) GetModel() string {
	return c.model
}
