package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// CredentialStore holds API keys keyed by hosted provider ID ("openai", "anthropic").
// It is the persisted-preference half of credential lookup; Config.APIKey falls back
// to environment variables when the store has no entry.
type CredentialStore struct {
	credentials map[string]string
}

type credentialsFile struct {
	Credentials map[string]string `toml:"credentials"`
}

// NewCredentialStore creates an empty credential store
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		credentials: make(map[string]string),
	}
}

// Load reads credentials.toml from the data directory. A missing file is not an error.
func (c *CredentialStore) Load(dataDir string) error {
	path := credentialsPath(dataDir)
	if !FileExists(path) {
		c.credentials = make(map[string]string)
		return nil
	}

	var cf credentialsFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return fmt.Errorf("failed to parse credentials file: %w", err)
	}

	if cf.Credentials == nil {
		cf.Credentials = make(map[string]string)
	}
	c.credentials = cf.Credentials
	return nil
}

// Save writes credentials.toml with 0600 permissions
func (c *CredentialStore) Save(dataDir string) error {
	path := credentialsPath(dataDir)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(credentialsFile{Credentials: c.credentials}); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	return nil
}

// Get retrieves a credential for a provider
func (c *CredentialStore) Get(providerID string) string {
	return c.credentials[providerID]
}

// Set stores a credential for a provider
func (c *CredentialStore) Set(providerID string, apiKey string) {
	c.credentials[providerID] = apiKey
}

// Delete removes a credential for a provider
func (c *CredentialStore) Delete(providerID string) {
	delete(c.credentials, providerID)
}

func credentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.toml")
}
