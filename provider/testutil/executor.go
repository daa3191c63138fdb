package testutil

import (
	"context"
	"sync"
)

// FakeExecutor records snippets instead of running them in Blender.
// It satisfies runner.Executor.
type FakeExecutor struct {
	// ExecuteFunc is called by Execute when set; otherwise Execute returns Err.
	ExecuteFunc func(ctx context.Context, code string) error
	Err         error

	mu       sync.Mutex
	snippets []string
}

func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{}
}

func (f *FakeExecutor) Execute(ctx context.Context, code string) error {
	f.mu.Lock()
	f.snippets = append(f.snippets, code)
	f.mu.Unlock()

	if f.ExecuteFunc != nil {
		return f.ExecuteFunc(ctx, code)
	}
	return f.Err
}

// Snippets returns every snippet passed to Execute, oldest first
func (f *FakeExecutor) Snippets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.snippets))
	copy(out, f.snippets)
	return out
}
