package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"blendassist/config"

	"golang.org/x/term"
)

// runSetKey reads the hosted API key and stores it in the credential store.
// Empty input removes the stored key.
func runSetKey(cfg *config.Config) int {
	key, err := readAPIKey(os.Stdin, cfg.Hosted.Provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	providerID, err := storeAPIKey(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if key == "" {
		fmt.Fprintf(os.Stderr, "Removed the stored API key for %s\n", providerID)
	} else {
		fmt.Fprintf(os.Stderr, "Stored the API key for %s\n", providerID)
	}
	return 0
}

// readAPIKey prompts without echo on a terminal and reads one line otherwise.
func readAPIKey(f *os.File, providerID string) (string, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return readKeyLine(f)
	}

	fmt.Fprintf(os.Stderr, "API key for %s (empty to remove): ", providerID)
	key, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(string(key)), nil
}

func readKeyLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// storeAPIKey saves key for the configured hosted provider and returns the
// provider ID. An empty key deletes the entry.
func storeAPIKey(cfg *config.Config, key string) (string, error) {
	providerID := cfg.Hosted.Provider
	if providerID == "" {
		return "", errors.New("no hosted provider configured")
	}

	store := cfg.CredentialStore
	if store == nil {
		store = config.NewCredentialStore()
		if err := store.Load(cfg.DataDir()); err != nil {
			return "", err
		}
		cfg.CredentialStore = store
	}

	switch key = strings.TrimSpace(key); key {
	case "":
		store.Delete(providerID)
	default:
		store.Set(providerID, key)
	}

	if err := store.Save(cfg.DataDir()); err != nil {
		return "", err
	}
	return providerID, nil
}
