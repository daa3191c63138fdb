package testutil

import (
	"context"
	"sync"

	"blendassist/model"
)

// MockProvider implements model.Provider for testing. It records every request.
type MockProvider struct {
	// GenerateFunc is called by Generate; defaults to returning Reply.
	GenerateFunc func(ctx context.Context, req model.ModelRequest) (string, error)
	Reply        string
	ProviderName string

	mu       sync.Mutex
	requests []model.ModelRequest
}

// NewMockProvider creates a mock provider that answers every request with reply
func NewMockProvider(reply string) *MockProvider {
	return &MockProvider{
		Reply:        reply,
		ProviderName: "mock",
	}
}

// NewFailingProvider creates a mock provider that always fails with err
func NewFailingProvider(err error) *MockProvider {
	m := NewMockProvider("")
	m.GenerateFunc = func(ctx context.Context, req model.ModelRequest) (string, error) {
		return "", err
	}
	return m
}

func (m *MockProvider) Generate(ctx context.Context, req model.ModelRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return m.Reply, nil
}

func (m *MockProvider) Name() string {
	return m.ProviderName
}

// Calls returns how many times Generate was invoked
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or the zero value if none was made
func (m *MockProvider) LastRequest() model.ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return model.ModelRequest{}
	}
	return m.requests[len(m.requests)-1]
}
