package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"blendassist/client"
	"blendassist/config"
	"blendassist/model"
	"blendassist/provider"
	"blendassist/provider/testutil"
	"blendassist/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDirectory:         t.TempDir(),
		Backend:               config.BackendLocal,
		FenceAssistantHistory: true,
		StripReplyFences:      true,
		Local:                 config.LocalConfig{Kind: "generate", URL: "http://127.0.0.1:1/generate", Model: "llama"},
		Hosted:                config.HostedConfig{Provider: "openai", Model: "gpt-4"},
		Params:                config.ParamsConfig{Temperature: 0.7, TopP: 0.9, MaxTokens: 1500},
		CredentialStore:       config.NewCredentialStore(),
	}
}

func mockClient(cfg *config.Config, p *testutil.MockProvider) *client.Client {
	return client.New(cfg, client.WithProviderFactory(func(provider.Config) (model.Provider, error) {
		return p, nil
	}))
}

func newAssistant(t *testing.T, cfg *config.Config, c ModelClient, exec *testutil.FakeExecutor) *Assistant {
	t.Helper()
	a, err := Init(Deps{Config: cfg, Client: c, Executor: exec, BufferDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { a.Teardown() })
	return a
}

func TestSendSuccess(t *testing.T) {
	cfg := testConfig(t)
	p := testutil.NewMockProvider("bpy.ops.mesh.primitive_cube_add()")
	exec := testutil.NewFakeExecutor()
	a := newAssistant(t, cfg, mockClient(cfg, p), exec)

	out, err := a.Send(context.Background(), "add a cube")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !out.Response.OK() || !out.Executed || !out.Execution.OK() {
		t.Fatalf("outcome = %+v", out)
	}

	history := a.History()
	if len(history) != 2 {
		t.Fatalf("history len = %d, want 2", len(history))
	}
	if history[0].Role != model.RoleUser || history[0].Content != "add a cube" {
		t.Errorf("entry 0 = %+v", history[0])
	}
	if history[1].Role != model.RoleAssistant || history[1].Content != "bpy.ops.mesh.primitive_cube_add()" {
		t.Errorf("entry 1 = %+v", history[1])
	}
	if got := exec.Snippets(); len(got) != 1 || got[0] != "bpy.ops.mesh.primitive_cube_add()" {
		t.Errorf("executed = %q", got)
	}

	// The request was built from the history before this turn
	if req := p.LastRequest(); len(req.History) != 0 {
		t.Errorf("first request carried %d history entries, want 0", len(req.History))
	}
}

func TestSendLocalEndpointScenario(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "bpy.ops.mesh.primitive_cube_add()"}`))
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.Local.URL = server.URL + "/generate"
	exec := testutil.NewFakeExecutor()
	a := newAssistant(t, cfg, nil, exec)

	out, err := a.Send(context.Background(), "add a cube")
	if err != nil {
		t.Fatal(err)
	}
	if !out.Response.OK() || out.Response.Text != "bpy.ops.mesh.primitive_cube_add()" {
		t.Errorf("response = %+v", out.Response)
	}
	if !out.Execution.OK() {
		t.Errorf("execution = %+v", out.Execution.Failure)
	}
	if len(a.History()) != 2 {
		t.Errorf("history len = %d, want 2", len(a.History()))
	}
}

func TestSendServerErrorKeepsOnlyUserEntry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.Local.URL = server.URL + "/generate"
	exec := testutil.NewFakeExecutor()
	a := newAssistant(t, cfg, nil, exec)

	out, err := a.Send(context.Background(), "add a cube")
	if err != nil {
		t.Fatal(err)
	}
	if out.Response.OK() || out.Response.Failure.Kind != model.FailureNetwork {
		t.Errorf("response = %+v, want network failure", out.Response)
	}
	if out.Executed {
		t.Error("nothing should run after a failed model call")
	}
	if n := len(exec.Snippets()); n != 0 {
		t.Errorf("executor called %d times", n)
	}

	history := a.History()
	if len(history) != 1 || history[0].Role != model.RoleUser {
		t.Errorf("history = %+v, want only the user entry", history)
	}
}

func TestSendInvalidCodeKeepsBothEntries(t *testing.T) {
	cfg := testConfig(t)
	p := testutil.NewMockProvider("def :")
	exec := testutil.NewFakeExecutor()
	exec.Err = errors.New("SyntaxError: invalid syntax")
	a := newAssistant(t, cfg, mockClient(cfg, p), exec)

	out, err := a.Send(context.Background(), "break things")
	if err != nil {
		t.Fatal(err)
	}
	if !out.Response.OK() {
		t.Fatalf("response = %+v", out.Response)
	}
	if out.Execution.OK() {
		t.Fatal("execution should fail")
	}
	if !strings.Contains(out.Execution.Failure.Detail, "SyntaxError") {
		t.Errorf("Detail = %q", out.Execution.Failure.Detail)
	}
	if len(a.History()) != 2 {
		t.Errorf("history len = %d, want 2", len(a.History()))
	}
}

func TestSendMissingCredential(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend = config.BackendHosted
	p := testutil.NewMockProvider("unused")
	c := client.New(cfg,
		client.WithCredentialResolver(func() string { return "" }),
		client.WithProviderFactory(func(provider.Config) (model.Provider, error) { return p, nil }),
	)
	a := newAssistant(t, cfg, c, testutil.NewFakeExecutor())

	out, err := a.Send(context.Background(), "add a cube")
	if err != nil {
		t.Fatal(err)
	}
	if out.Response.OK() || out.Response.Failure.Detail != "missing credential" {
		t.Errorf("response = %+v", out.Response)
	}
	if p.Calls() != 0 {
		t.Errorf("provider called %d times", p.Calls())
	}
}

func TestSendEmptyInput(t *testing.T) {
	cfg := testConfig(t)
	a := newAssistant(t, cfg, mockClient(cfg, testutil.NewMockProvider("x")), testutil.NewFakeExecutor())

	if _, err := a.Send(context.Background(), "  "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Send() error = %v, want ErrEmptyInput", err)
	}
	if len(a.History()) != 0 {
		t.Error("empty input must not be recorded")
	}
}

func TestSendRejectsOverlap(t *testing.T) {
	cfg := testConfig(t)
	started := make(chan struct{})
	release := make(chan struct{})
	p := testutil.NewMockProvider("")
	p.GenerateFunc = func(ctx context.Context, req model.ModelRequest) (string, error) {
		close(started)
		<-release
		return "x = 1", nil
	}
	a := newAssistant(t, cfg, mockClient(cfg, p), testutil.NewFakeExecutor())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Send(context.Background(), "first")
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first Send never reached the provider")
	}

	if !a.Busy() {
		t.Error("Busy() should be true while a request is in flight")
	}
	if _, err := a.Send(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("overlapping Send() error = %v, want ErrBusy", err)
	}
	if res := a.RunCode(context.Background(), "x = 1"); res.OK() {
		t.Error("RunCode should be rejected while busy")
	}

	close(release)
	wg.Wait()

	if a.Busy() {
		t.Error("Busy() should be false after Send returns")
	}
	if len(a.History()) != 2 {
		t.Errorf("history len = %d, want 2", len(a.History()))
	}
}

func TestHistoryWindowSentToClient(t *testing.T) {
	cfg := testConfig(t)
	p := testutil.NewMockProvider("x = 1")
	a := newAssistant(t, cfg, mockClient(cfg, p), testutil.NewFakeExecutor())

	for i := 0; i < 7; i++ {
		if _, err := a.Send(context.Background(), "task"); err != nil {
			t.Fatal(err)
		}
	}

	req := p.LastRequest()
	if len(req.History) != model.HistoryWindow {
		t.Errorf("history sent = %d, want %d", len(req.History), model.HistoryWindow)
	}
	if len(a.History()) != 14 {
		t.Errorf("stored history = %d, want 14", len(a.History()))
	}
}

func TestDeleteAndClear(t *testing.T) {
	cfg := testConfig(t)
	a := newAssistant(t, cfg, mockClient(cfg, testutil.NewMockProvider("x = 1")), testutil.NewFakeExecutor())
	a.Send(context.Background(), "one")

	if err := a.Delete(5); !errors.Is(err, model.ErrIndexOutOfRange) {
		t.Errorf("Delete(5) error = %v, want ErrIndexOutOfRange", err)
	}
	if err := a.Delete(0); err != nil {
		t.Fatalf("Delete(0) error = %v", err)
	}
	if h := a.History(); len(h) != 1 || h[0].Role != model.RoleAssistant {
		t.Errorf("history after delete = %+v", h)
	}

	a.Clear()
	if len(a.History()) != 0 {
		t.Error("Clear() should empty the history")
	}
}

func TestShowCode(t *testing.T) {
	cfg := testConfig(t)
	p := testutil.NewMockProvider("```python\nbpy.ops.mesh.primitive_cube_add()\n```")
	a := newAssistant(t, cfg, mockClient(cfg, p), testutil.NewFakeExecutor())
	a.Send(context.Background(), "add a cube")

	if _, err := a.ShowCode(0); !errors.Is(err, ErrNotAssistant) {
		t.Errorf("ShowCode(user entry) error = %v, want ErrNotAssistant", err)
	}
	if _, err := a.ShowCode(9); !errors.Is(err, model.ErrIndexOutOfRange) {
		t.Errorf("ShowCode(9) error = %v, want ErrIndexOutOfRange", err)
	}

	path, err := a.ShowCode(1)
	if err != nil {
		t.Fatalf("ShowCode(1) error = %v", err)
	}
	if !strings.HasSuffix(path, CodeBufferName) {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "bpy.ops.mesh.primitive_cube_add()\n" {
		t.Errorf("buffer = %q", data)
	}
}

func TestRunCode(t *testing.T) {
	cfg := testConfig(t)
	exec := testutil.NewFakeExecutor()
	a := newAssistant(t, cfg, mockClient(cfg, testutil.NewMockProvider("")), exec)

	if res := a.RunCode(context.Background(), "bpy.ops.object.delete()"); !res.OK() {
		t.Errorf("RunCode() = %+v", res.Failure)
	}
	if got := exec.Snippets(); len(got) != 1 || got[0] != "bpy.ops.object.delete()" {
		t.Errorf("executed = %q", got)
	}
}

func TestAuditJournalRecordsSend(t *testing.T) {
	cfg := testConfig(t)
	journal, err := storage.NewAuditJournal(cfg.DataDir())
	if err != nil {
		t.Fatal(err)
	}
	exec := testutil.NewFakeExecutor()
	exec.Err = errors.New("NameError: name 'foo' is not defined")

	a, err := Init(Deps{Config: cfg, Client: mockClient(cfg, testutil.NewMockProvider("foo()")), Executor: exec, Journal: journal, BufferDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	out, err := a.Send(context.Background(), "call foo")
	if err != nil {
		t.Fatal(err)
	}
	if out.AuditID == "" {
		t.Fatal("AuditID should be set when the journal is enabled")
	}

	entry, err := journal.Get(out.AuditID)
	if err != nil || entry == nil {
		t.Fatalf("Get() = %v, %v", entry, err)
	}
	if entry.Task != "call foo" || !entry.Executed || !strings.Contains(entry.ExecError, "NameError") {
		t.Errorf("entry = %+v", entry)
	}

	if err := a.Teardown(); err != nil {
		t.Errorf("Teardown() error = %v", err)
	}
	if _, err := journal.Count(); err == nil {
		t.Error("journal should be closed after Teardown")
	}
}

func TestTeardown(t *testing.T) {
	cfg := testConfig(t)
	lock := storage.NewInstanceLock(cfg.DataDir())
	if err := lock.Lock(); err != nil {
		t.Fatal(err)
	}

	a, err := Init(Deps{Config: cfg, Client: mockClient(cfg, testutil.NewMockProvider("x = 1")), Executor: testutil.NewFakeExecutor(), Lock: lock})
	if err != nil {
		t.Fatal(err)
	}
	a.Send(context.Background(), "one")

	if err := a.Teardown(); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}
	if len(a.History()) != 0 {
		t.Error("Teardown should clear the conversation")
	}
	if config.FileExists(lock.Path()) {
		t.Error("Teardown should release the instance lock")
	}
	if _, err := a.Send(context.Background(), "two"); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Teardown error = %v, want ErrClosed", err)
	}
	if err := a.Teardown(); err != nil {
		t.Errorf("second Teardown() error = %v", err)
	}
}

func TestTeardownDuringSend(t *testing.T) {
	cfg := testConfig(t)
	journal, err := storage.NewAuditJournal(cfg.DataDir())
	if err != nil {
		t.Fatal(err)
	}
	started := make(chan struct{})
	release := make(chan struct{})
	p := testutil.NewMockProvider("")
	p.GenerateFunc = func(ctx context.Context, req model.ModelRequest) (string, error) {
		close(started)
		<-release
		return "x = 1", nil
	}
	exec := testutil.NewFakeExecutor()

	a, err := Init(Deps{Config: cfg, Client: mockClient(cfg, p), Executor: exec, Journal: journal, BufferDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := a.Send(context.Background(), "add a cube")
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("Send never reached the provider")
	}

	if err := a.Teardown(); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}
	close(release)

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Send() error = %v, want ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Send did not return")
	}

	if len(a.History()) != 0 {
		t.Errorf("history len = %d, want 0 after teardown", len(a.History()))
	}
	if got := exec.Snippets(); len(got) != 0 {
		t.Errorf("executed %q after teardown", got)
	}
	if res := a.RunCode(context.Background(), "x = 1"); res.OK() || !strings.Contains(res.Failure.Detail, ErrClosed.Error()) {
		t.Errorf("RunCode after Teardown = %+v, want closed failure", res)
	}
}

func TestInitRequiresConfig(t *testing.T) {
	if _, err := Init(Deps{}); err == nil {
		t.Error("Init without config should fail")
	}
}
