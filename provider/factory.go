package provider

import (
	"fmt"

	"blendassist/config"
	"blendassist/model"
)

// NewProvider creates a provider based on configuration.
//
// Returns an error if the provider type is unknown or the provider-specific
// constructor fails (invalid URL, missing API key for hosted providers).
func NewProvider(cfg Config) (model.Provider, error) {
	var (
		p   model.Provider
		err error
	)

	// A nil concrete pointer must not leak out as a non-nil interface
	switch cfg.Type {
	case ProviderTypeGenerate:
		var gp *GenerateProvider
		if gp, err = NewGenerateProvider(cfg.BaseURL, cfg.Model); err == nil {
			p = gp
		}
	case ProviderTypeOllama:
		var op *OllamaProvider
		if op, err = NewOllamaProvider(cfg.BaseURL, cfg.Model); err == nil {
			p = op
		}
	case ProviderTypeOpenAI:
		var op *OpenAIProvider
		if op, err = NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model); err == nil {
			p = op
		}
	case ProviderTypeAnthropic:
		var ap *AnthropicProvider
		if ap, err = NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Model); err == nil {
			p = ap
		}
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}

	if err != nil {
		return nil, err
	}
	return p, nil
}

// LocalConfig maps the [local] config section to a provider Config.
func LocalConfig(cfg *config.Config) Config {
	switch cfg.Local.Kind {
	case "ollama":
		return Config{Type: ProviderTypeOllama, BaseURL: cfg.Local.Host, Model: cfg.Local.Model}
	default:
		return Config{Type: ProviderTypeGenerate, BaseURL: cfg.Local.URL, Model: cfg.Local.Model}
	}
}

// HostedConfig maps the [hosted] config section to a provider Config with the given key.
func HostedConfig(cfg *config.Config, apiKey string) Config {
	return Config{
		Type:    MapProviderIDToType(cfg.Hosted.Provider),
		BaseURL: cfg.Hosted.BaseURL,
		Model:   cfg.Hosted.Model,
		APIKey:  apiKey,
	}
}

// MapProviderIDToType converts a config provider ID to a factory ProviderType.
// Unknown IDs are passed through as-is; the factory rejects them.
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case "generate":
		return ProviderTypeGenerate
	case "ollama":
		return ProviderTypeOllama
	case "openai":
		return ProviderTypeOpenAI
	case "anthropic":
		return ProviderTypeAnthropic
	default:
		return ProviderType(id)
	}
}
