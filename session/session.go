// Package session owns the per-process assistant state: the conversation, the
// model client and the code runner. A session is activated with Init and
// released with Teardown.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"blendassist/client"
	"blendassist/config"
	"blendassist/model"
	"blendassist/runner"
	"blendassist/storage"
)

var (
	// ErrBusy is returned when a request is already in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrEmptyInput is returned by Send for blank input.
	ErrEmptyInput = errors.New("input is empty")
	// ErrNotAssistant is returned when an operation needs generated code but the entry is a user message.
	ErrNotAssistant = errors.New("entry is not generated code")
	// ErrClosed is returned after Teardown.
	ErrClosed = errors.New("session is closed")
)

// CodeBufferName is the text buffer generated code is shown in.
const CodeBufferName = "BlendAssist_Generated_Code.py"

// ModelClient is the part of client.Client the session depends on.
type ModelClient interface {
	GetResponse(ctx context.Context, task string, history *model.Conversation, systemPrompt string, backend model.Backend, params model.Params) model.ModelResponse
}

// Deps are the collaborators handed to Init. Only Config is required.
type Deps struct {
	Config *config.Config
	// Client defaults to client.New(Config).
	Client ModelClient
	// Executor defaults to a BlenderExecutor built from Config.
	Executor runner.Executor
	// Journal defaults to <data_dir>/audit.db when auditing is enabled.
	Journal *storage.AuditJournal
	// Lock, when set, is released by Teardown.
	Lock *storage.InstanceLock
	// BufferDir is where ShowCode writes; defaults to config.GetTempDir().
	BufferDir string
}

// Outcome is the result of one Send.
type Outcome struct {
	Response  model.ModelResponse
	Execution model.ExecutionResult
	// Executed is false when the model call failed and nothing ran.
	Executed bool
	AuditID  string
}

// Assistant is an activated session.
type Assistant struct {
	cfg       *config.Config
	client    ModelClient
	runner    *runner.Runner
	journal   *storage.AuditJournal
	lock      *storage.InstanceLock
	bufferDir string

	mu     sync.Mutex
	conv   *model.Conversation
	busy   bool
	closed bool
}

// Init activates a session.
func Init(deps Deps) (*Assistant, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, errors.New("session requires a config")
	}

	modelClient := deps.Client
	if modelClient == nil {
		modelClient = client.New(cfg)
	}

	executor := deps.Executor
	if executor == nil {
		executor = runner.NewBlenderExecutor(cfg)
	}

	journal := deps.Journal
	if journal == nil && cfg.AuditEnabled {
		j, err := storage.NewAuditJournal(cfg.DataDir())
		if err != nil {
			return nil, fmt.Errorf("failed to open audit journal: %w", err)
		}
		journal = j
	}

	bufferDir := deps.BufferDir
	if bufferDir == "" {
		bufferDir = config.GetTempDir()
	}

	a := &Assistant{
		cfg:       cfg,
		client:    modelClient,
		runner:    runner.New(executor, runner.Options{StripFences: cfg.StripReplyFences}),
		journal:   journal,
		lock:      deps.Lock,
		bufferDir: bufferDir,
		conv:      model.NewConversation(),
	}

	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Session] initialised: backend=%s audit=%v", cfg.Backend, journal != nil)
	}

	return a, nil
}

// Teardown clears the conversation, closes the audit journal and releases the
// instance lock. Calling it more than once is harmless.
func (a *Assistant) Teardown() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.conv.Clear()
	a.mu.Unlock()

	var errs []error
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close audit journal: %w", err))
		}
	}
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("failed to release instance lock: %w", err))
		}
	}

	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Session] teardown complete")
	}

	return errors.Join(errs...)
}

// Send asks the model for code that performs input, records the exchange and
// runs the reply. The user entry is always kept; the assistant entry only when
// the model answered. A fault in the generated code does not remove either.
func (a *Assistant) Send(ctx context.Context, input string) (Outcome, error) {
	if strings.TrimSpace(input) == "" {
		return Outcome{}, ErrEmptyInput
	}

	a.mu.Lock()
	switch {
	case a.closed:
		a.mu.Unlock()
		return Outcome{}, ErrClosed
	case a.busy:
		a.mu.Unlock()
		return Outcome{}, ErrBusy
	}
	a.busy = true
	history := model.NewConversation()
	for _, msg := range a.conv.LastN(model.HistoryWindow) {
		history.Append(msg)
	}
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()
	}()

	backend := model.Backend(a.cfg.Backend)
	params := model.Params{
		Temperature: a.cfg.Params.Temperature,
		TopP:        a.cfg.Params.TopP,
		MaxTokens:   a.cfg.Params.MaxTokens,
	}

	resp := a.client.GetResponse(ctx, input, history, a.cfg.EffectiveSystemPrompt(), backend, params)

	a.mu.Lock()
	if a.closed {
		// Torn down while the model call was in flight
		a.mu.Unlock()
		return Outcome{Response: resp}, ErrClosed
	}
	a.conv.Append(model.NewUserMessage(input))
	if resp.OK() {
		a.conv.Append(model.NewAssistantMessage(resp.Text))
	}
	a.mu.Unlock()

	out := Outcome{Response: resp}
	if resp.OK() {
		out.Execution = a.runner.Run(ctx, resp.Text)
		out.Executed = true
	}

	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Session] send: response_ok=%v executed=%v exec_ok=%v", resp.OK(), out.Executed, out.Execution.OK())
	}

	out.AuditID = a.record(string(backend), input, out)

	return out, nil
}

func (a *Assistant) record(backend, task string, out Outcome) string {
	if a.journal == nil {
		return ""
	}

	entry := storage.AuditEntry{
		Backend:  backend,
		Task:     task,
		Reply:    out.Response.Text,
		Executed: out.Executed,
		Scene:    a.cfg.ScenePath(),
	}
	if f := out.Response.Failure; f != nil {
		entry.FailureKind = string(f.Kind)
		entry.FailureDetail = f.Detail
	}
	if f := out.Execution.Failure; out.Executed && f != nil {
		entry.ExecError = f.Detail
	}

	id, err := a.journal.Record(entry)
	if err != nil {
		if config.Debug && config.DebugLog != nil {
			config.DebugLog.Printf("[Session] audit record failed: %v", err)
		}
		return ""
	}
	return id
}

// Busy reports whether a Send is in flight.
func (a *Assistant) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// Clear empties the conversation.
func (a *Assistant) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conv.Clear()
}

// Delete removes the entry at index.
func (a *Assistant) Delete(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conv.RemoveAt(index)
}

// History returns a copy of the conversation.
func (a *Assistant) History() []model.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conv.Messages()
}

// Code returns the executable snippet of the assistant entry at index.
func (a *Assistant) Code(index int) (string, error) {
	a.mu.Lock()
	msg, err := a.conv.At(index)
	a.mu.Unlock()
	if err != nil {
		return "", err
	}
	if msg.Role != model.RoleAssistant {
		return "", fmt.Errorf("entry %d: %w", index, ErrNotAssistant)
	}
	return runner.ExtractCode(msg.Content, a.cfg.StripReplyFences), nil
}

// ShowCode writes the assistant entry at index to the generated-code buffer
// file and returns its path.
func (a *Assistant) ShowCode(index int) (string, error) {
	code, err := a.Code(index)
	if err != nil {
		return "", err
	}

	if err := config.EnsureDir(a.bufferDir); err != nil {
		return "", fmt.Errorf("failed to create buffer directory: %w", err)
	}

	path := filepath.Join(a.bufferDir, CodeBufferName)
	if err := os.WriteFile(path, []byte(code+"\n"), 0600); err != nil {
		return "", fmt.Errorf("failed to write code buffer: %w", err)
	}

	return path, nil
}

// RunCode runs code, typically an edited copy of a generated snippet.
func (a *Assistant) RunCode(ctx context.Context, code string) model.ExecutionResult {
	a.mu.Lock()
	switch {
	case a.closed:
		a.mu.Unlock()
		return model.ExecutionFailed(fmt.Sprintf("%s %v", runner.ErrorPrefix, ErrClosed))
	case a.busy:
		a.mu.Unlock()
		return model.ExecutionFailed(fmt.Sprintf("%s %v", runner.ErrorPrefix, ErrBusy))
	}
	a.busy = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()
	}()

	return a.runner.Run(ctx, code)
}
