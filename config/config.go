package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

// LocalConfig describes the local inference backend.
// Kind "generate" posts to a plain /generate endpoint, kind "ollama" talks to an Ollama server.
type LocalConfig struct {
	Kind  string `toml:"kind"`
	URL   string `toml:"url"`
	Host  string `toml:"host"`
	Model string `toml:"model"`
}

// HostedConfig describes the hosted completion API.
type HostedConfig struct {
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url,omitempty"`
	Model    string `toml:"model"`
}

type ParamsConfig struct {
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"top_p"`
	MaxTokens   int     `toml:"max_tokens"`
}

type BlenderConfig struct {
	Path           string `toml:"path"`
	Scene          string `toml:"scene"`
	SaveScene      bool   `toml:"save_scene"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type AuditConfig struct {
	Enabled bool `toml:"enabled"`
}

type UserConfig struct {
	Backend               string        `toml:"backend"`
	SystemPrompt          string        `toml:"system_prompt,omitempty"`
	FenceAssistantHistory bool          `toml:"fence_assistant_history"`
	StripReplyFences      bool          `toml:"strip_reply_fences"`
	Local                 LocalConfig   `toml:"local"`
	Hosted                HostedConfig  `toml:"hosted"`
	Params                ParamsConfig  `toml:"params"`
	Blender               BlenderConfig `toml:"blender"`
	Audit                 AuditConfig   `toml:"audit"`
}

type Config struct {
	DataDirectory         string
	Backend               string
	SystemPrompt          string
	FenceAssistantHistory bool
	StripReplyFences      bool
	Local                 LocalConfig
	Hosted                HostedConfig
	Params                ParamsConfig
	Blender               BlenderConfig
	AuditEnabled          bool
	CredentialStore       *CredentialStore
}

var Debug = false
var DebugLog *log.Logger

const (
	BackendLocal  = "local"
	BackendHosted = "hosted"
)

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// ScenePath returns the expanded scene file path, or "" when Blender should start with its factory scene.
func (c *Config) ScenePath() string {
	return ExpandPath(c.Blender.Scene)
}

// EffectiveSystemPrompt returns the configured system prompt, falling back to the built-in one.
func (c *Config) EffectiveSystemPrompt() string {
	if strings.TrimSpace(c.SystemPrompt) != "" {
		return c.SystemPrompt
	}
	return DefaultSystemPrompt
}

// APIKey resolves the credential for the hosted provider: credential store first,
// then the provider's environment variable. Returns "" when neither is set.
func (c *Config) APIKey() string {
	if c.CredentialStore != nil {
		if key := c.CredentialStore.Get(c.Hosted.Provider); key != "" {
			return key
		}
	}
	return os.Getenv(APIKeyEnvVar(c.Hosted.Provider))
}

// APIKeyEnvVar returns the environment variable consulted for a hosted provider's key.
func APIKeyEnvVar(providerID string) string {
	switch providerID {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// Validate checks the enum-like fields so typos surface at startup instead of on first send.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal, BackendHosted:
	default:
		return fmt.Errorf("unknown backend %q (expected %q or %q)", c.Backend, BackendLocal, BackendHosted)
	}
	switch c.Local.Kind {
	case "generate", "ollama":
	default:
		return fmt.Errorf("unknown local backend kind %q", c.Local.Kind)
	}
	switch c.Hosted.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown hosted provider %q", c.Hosted.Provider)
	}
	if c.Params.MaxTokens <= 0 {
		return fmt.Errorf("params.max_tokens must be positive, got %d", c.Params.MaxTokens)
	}
	return nil
}

func (c *Config) applyUserConfig(userCfg *UserConfig) {
	c.Backend = userCfg.Backend
	c.SystemPrompt = userCfg.SystemPrompt
	c.FenceAssistantHistory = userCfg.FenceAssistantHistory
	c.StripReplyFences = userCfg.StripReplyFences
	c.Local = userCfg.Local
	c.Hosted = userCfg.Hosted
	c.Params = userCfg.Params
	c.Blender = userCfg.Blender
	c.AuditEnabled = userCfg.Audit.Enabled
}

func (c *Config) applyEnvOverrides() {
	if backend := os.Getenv("BLENDASSIST_BACKEND"); backend != "" {
		c.Backend = backend
	}
	if blender := os.Getenv("BLENDASSIST_BLENDER"); blender != "" {
		c.Blender.Path = blender
	}
	if scene := os.Getenv("BLENDASSIST_SCENE"); scene != "" {
		c.Blender.Scene = scene
	}
	if dataDir := os.Getenv("BLENDASSIST_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

func CheckDebug() bool {
	debug := os.Getenv("BLENDASSIST_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: log lines may include prompts and generated code
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (BLENDASSIST_DEBUG=%s) ===", os.Getenv("BLENDASSIST_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// ValidateEnvBackend reports a bad BLENDASSIST_BACKEND value before anything else starts.
func ValidateEnvBackend() error {
	backend := os.Getenv("BLENDASSIST_BACKEND")
	if backend == "" || backend == BackendLocal || backend == BackendHosted {
		return nil
	}
	return fmt.Errorf("BLENDASSIST_BACKEND=%q is not valid (use %q or %q)", backend, BackendLocal, BackendHosted)
}

func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory: DefaultSystemConfig().DataDirectory,
	}
	cfg.applyUserConfig(DefaultUserConfig())

	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}
	cfg.DataDirectory = systemCfg.DataDirectory

	// The data dir override must win before the user config is located
	if dataDir := os.Getenv("BLENDASSIST_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Ensure data directory has correct permissions (fix if needed)
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.applyUserConfig(userCfg)
	cfg.applyEnvOverrides()

	store := NewCredentialStore()
	if err := store.Load(dataDir); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	cfg.CredentialStore = store

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
