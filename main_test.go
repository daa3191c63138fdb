package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"blendassist/config"
	"blendassist/storage"
)

func TestReadKeyLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"line with newline", "sk-test\n", "sk-test"},
		{"no trailing newline", "sk-test", "sk-test"},
		{"surrounding space", "  sk-test \r\nignored\n", "sk-test"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readKeyLine(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("readKeyLine() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("readKeyLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStoreAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	dir := t.TempDir()
	cfg := &config.Config{
		DataDirectory:   dir,
		Hosted:          config.HostedConfig{Provider: "anthropic"},
		CredentialStore: config.NewCredentialStore(),
	}

	providerID, err := storeAPIKey(cfg, " ak-test\n")
	if err != nil {
		t.Fatalf("storeAPIKey() error = %v", err)
	}
	if providerID != "anthropic" {
		t.Errorf("provider = %q, want anthropic", providerID)
	}
	if got := cfg.APIKey(); got != "ak-test" {
		t.Errorf("APIKey() = %q, want ak-test", got)
	}

	reloaded := config.NewCredentialStore()
	if err := reloaded.Load(dir); err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Get("anthropic"); got != "ak-test" {
		t.Errorf("saved key = %q, want ak-test", got)
	}

	if _, err := storeAPIKey(cfg, ""); err != nil {
		t.Fatalf("storeAPIKey(\"\") error = %v", err)
	}
	reloaded = config.NewCredentialStore()
	if err := reloaded.Load(dir); err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Get("anthropic"); got != "" {
		t.Errorf("key after removal = %q, want empty", got)
	}
}

func TestStoreAPIKeyLoadsStore(t *testing.T) {
	dir := t.TempDir()
	existing := config.NewCredentialStore()
	existing.Set("anthropic", "ak-old")
	if err := existing.Save(dir); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{DataDirectory: dir, Hosted: config.HostedConfig{Provider: "openai"}}
	if _, err := storeAPIKey(cfg, "sk-new"); err != nil {
		t.Fatalf("storeAPIKey() error = %v", err)
	}

	reloaded := config.NewCredentialStore()
	if err := reloaded.Load(dir); err != nil {
		t.Fatal(err)
	}
	if reloaded.Get("openai") != "sk-new" || reloaded.Get("anthropic") != "ak-old" {
		t.Errorf("store = openai:%q anthropic:%q", reloaded.Get("openai"), reloaded.Get("anthropic"))
	}
}

func TestStoreAPIKeyNeedsProvider(t *testing.T) {
	cfg := &config.Config{DataDirectory: t.TempDir(), CredentialStore: config.NewCredentialStore()}
	if _, err := storeAPIKey(cfg, "sk-test"); err == nil {
		t.Error("expected error without a hosted provider")
	}
}

func newHistoryJournal(t *testing.T) *storage.AuditJournal {
	t.Helper()
	journal, err := storage.NewAuditJournal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { journal.Close() })

	base := time.Now().Add(-time.Hour)
	runs := []storage.AuditEntry{
		{Backend: "local", Task: "add a cube", Reply: "bpy.ops.mesh.primitive_cube_add()", Executed: true, CreatedAt: base},
		{Backend: "local", Task: "call foo", Reply: "foo()", Executed: true, ExecError: "NameError: name 'foo' is not defined", CreatedAt: base.Add(time.Minute)},
		{Backend: "hosted", Task: "add a sphere", FailureKind: "network", FailureDetail: "connection refused", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range runs {
		if _, err := journal.Record(r); err != nil {
			t.Fatal(err)
		}
	}
	return journal
}

func TestPrintHistory(t *testing.T) {
	journal := newHistoryJournal(t)

	tests := []struct {
		name    string
		query   string
		want    []string
		notWant []string
	}{
		{
			name:    "recent runs",
			want:    []string{"3 runs recorded", "ok       add a cube", "error    call foo", "failed   add a sphere"},
			notWant: []string{"match"},
		},
		{
			name:    "search",
			query:   "cube",
			want:    []string{`1 of 3 runs match "cube"`, "task   add a cube"},
			notWant: []string{"sphere", "foo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printHistory(&buf, journal, tt.query, historyLimit); err != nil {
				t.Fatalf("printHistory() error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, bad := range tt.notWant {
				if strings.Contains(out, bad) {
					t.Errorf("output should not contain %q:\n%s", bad, out)
				}
			}
		})
	}
}

func TestPrintRun(t *testing.T) {
	journal := newHistoryJournal(t)
	entries, err := journal.Recent(historyLimit)
	if err != nil {
		t.Fatal(err)
	}

	var failed string
	for _, e := range entries {
		if e.Task == "call foo" {
			failed = e.ID
		}
	}

	var buf bytes.Buffer
	if err := printRun(&buf, journal, failed); err != nil {
		t.Fatalf("printRun() error = %v", err)
	}
	for _, want := range []string{"Task:     call foo", "Status:   error", "Error:    NameError", "foo()"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}

	if err := printRun(&buf, journal, "missing"); err == nil {
		t.Error("expected error for an unknown run ID")
	}
}
