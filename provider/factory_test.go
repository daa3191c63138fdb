package provider

import (
	"testing"

	"blendassist/config"
	"blendassist/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name:   "generate provider with defaults",
			config: Config{Type: ProviderTypeGenerate},
		},
		{
			name:        "generate provider with hostless url",
			config:      Config{Type: ProviderTypeGenerate, BaseURL: "localhost:5000"},
			expectError: true,
		},
		{
			name:   "ollama provider with defaults",
			config: Config{Type: ProviderTypeOllama},
		},
		{
			name: "openai provider",
			config: Config{
				Type:    ProviderTypeOpenAI,
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-4",
				APIKey:  "test-key",
			},
		},
		{
			name:        "openai provider without key",
			config:      Config{Type: ProviderTypeOpenAI, Model: "gpt-4"},
			expectError: true,
		},
		{
			name: "anthropic provider",
			config: Config{
				Type:   ProviderTypeAnthropic,
				Model:  "claude-sonnet-4-5-20250929",
				APIKey: "test-key",
			},
		},
		{
			name:        "anthropic provider without key",
			config:      Config{Type: ProviderTypeAnthropic},
			expectError: true,
		},
		{
			name:        "unknown provider type",
			config:      Config{Type: ProviderType("unknown")},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)

			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				if p != nil {
					t.Error("expected nil provider, got non-nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p == nil {
				t.Fatal("expected non-nil provider, got nil")
			}
			if p.Name() != string(tt.config.Type) {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.config.Type)
			}
		})
	}
}

func TestLocalConfig(t *testing.T) {
	cfg := &config.Config{
		Local: config.LocalConfig{
			Kind:  "generate",
			URL:   "http://localhost:5000/generate",
			Host:  "http://localhost:11434",
			Model: "llama",
		},
	}

	got := LocalConfig(cfg)
	if got.Type != ProviderTypeGenerate || got.BaseURL != "http://localhost:5000/generate" {
		t.Errorf("LocalConfig(generate) = %+v", got)
	}

	cfg.Local.Kind = "ollama"
	got = LocalConfig(cfg)
	if got.Type != ProviderTypeOllama || got.BaseURL != "http://localhost:11434" {
		t.Errorf("LocalConfig(ollama) = %+v", got)
	}
}

func TestHostedConfig(t *testing.T) {
	cfg := &config.Config{
		Hosted: config.HostedConfig{Provider: "anthropic", Model: "claude-x"},
	}

	got := HostedConfig(cfg, "key")
	if got.Type != ProviderTypeAnthropic || got.Model != "claude-x" || got.APIKey != "key" {
		t.Errorf("HostedConfig() = %+v", got)
	}
}

// TestProvidersImplementInterface is a compile-time check for every provider
func TestProvidersImplementInterface(t *testing.T) {
	var _ model.Provider = (*GenerateProvider)(nil)
	var _ model.Provider = (*OllamaProvider)(nil)
	var _ model.Provider = (*OpenAIProvider)(nil)
	var _ model.Provider = (*AnthropicProvider)(nil)
}
