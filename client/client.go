// Package client turns a task and a conversation into a single completion
// call against the selected backend and reports the outcome as a
// model.ModelResponse. It never panics and never retries.
package client

import (
	"context"
	"fmt"
	"strings"

	"blendassist/config"
	"blendassist/model"
	"blendassist/prompt"
	"blendassist/provider"

	"github.com/google/uuid"
)

// CredentialResolver returns the hosted API key, or "" when none is configured.
type CredentialResolver func() string

// ProviderFactory builds a provider from its configuration.
type ProviderFactory func(provider.Config) (model.Provider, error)

// Client is the model client. It holds no conversation state of its own.
type Client struct {
	cfg         *config.Config
	credentials CredentialResolver
	newProvider ProviderFactory
	promptOpts  prompt.Options
}

// Option configures a Client.
type Option func(*Client)

// WithCredentialResolver replaces the config-based credential lookup.
func WithCredentialResolver(r CredentialResolver) Option {
	return func(c *Client) {
		c.credentials = r
	}
}

// WithProviderFactory replaces provider.NewProvider.
func WithProviderFactory(f ProviderFactory) Option {
	return func(c *Client) {
		c.newProvider = f
	}
}

// New creates a client reading backend settings from cfg.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		cfg:         cfg,
		credentials: cfg.APIKey,
		newProvider: provider.NewProvider,
		promptOpts:  prompt.Options{FenceAssistantHistory: cfg.FenceAssistantHistory},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetResponse sends task with the last model.HistoryWindow entries of history
// to backend and returns the reply text or a classified failure.
//
// Empty tasks and missing hosted credentials fail before any network call.
func (c *Client) GetResponse(ctx context.Context, task string, history *model.Conversation, systemPrompt string, backend model.Backend, params model.Params) (resp model.ModelResponse) {
	requestID := uuid.NewString()[:8]

	defer func() {
		if r := recover(); r != nil {
			if config.Debug && config.DebugLog != nil {
				config.DebugLog.Printf("[Client] %s: recovered panic: %v", requestID, r)
			}
			resp = model.Failure(model.FailureUnexpected, fmt.Sprintf("provider panicked: %v", r))
		}
	}()

	if strings.TrimSpace(task) == "" {
		return c.fail(requestID, model.FailureUpstream, "empty task")
	}

	var provCfg provider.Config
	switch backend {
	case model.BackendLocal:
		provCfg = provider.LocalConfig(c.cfg)
	case model.BackendHosted:
		apiKey := ""
		if c.credentials != nil {
			apiKey = c.credentials()
		}
		if apiKey == "" {
			return c.fail(requestID, model.FailureUpstream, "missing credential")
		}
		provCfg = provider.HostedConfig(c.cfg, apiKey)
	default:
		return c.fail(requestID, model.FailureUpstream, fmt.Sprintf("unknown backend %q", backend))
	}

	p, err := c.newProvider(provCfg)
	if err != nil {
		return c.fail(requestID, model.FailureUpstream, fmt.Sprintf("failed to create %s provider: %v", provCfg.Type, err))
	}

	req := prompt.Build(task, history, systemPrompt, params, c.promptOpts)

	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Client] %s: backend=%s provider=%s model=%s history=%d messages=%d",
			requestID, backend, p.Name(), providerModel(p), len(req.History), len(req.Messages))
	}

	text, err := p.Generate(ctx, req)
	if err != nil {
		return c.fail(requestID, model.KindOf(err), err.Error())
	}

	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Client] %s: received %d bytes", requestID, len(text))
	}

	return model.Success(text)
}

// providerModel returns the model a provider sends, or "" when it does not say.
func providerModel(p model.Provider) string {
	if m, ok := p.(interface{ GetModel() string }); ok {
		return m.GetModel()
	}
	return ""
}

func (c *Client) fail(requestID string, kind model.FailureKind, detail string) model.ModelResponse {
	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Client] %s: %s failure: %s", requestID, kind, detail)
	}
	return model.Failure(kind, detail)
}
