package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"blendassist/config"
	"blendassist/session"
	"blendassist/storage"
	"blendassist/ui"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func main() {
	os.Exit(run())
}

func run() int {
	prompt := flag.String("p", "", "send a single task, run the generated code and exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	setKey := flag.Bool("set-key", false, "read the hosted API key from stdin and store it (empty input removes it)")
	history := flag.Bool("history", false, "list recorded runs, or search them for the words given as arguments")
	showRun := flag.String("run", "", "print the recorded run with this ID")
	flag.Parse()

	if *showVersion {
		fmt.Printf("blendassist %s (%s)\n", Version, License)
		return 0
	}

	oneShot := *prompt != ""
	// Non-interactive modes report errors on stderr instead of a modal
	cli := oneShot || *setKey || *history || *showRun != ""

	// Validate environment variables first
	if err := config.ValidateEnvBackend(); err != nil {
		return fatal(cli, "Configuration Error", err.Error()+"\n\nUse \"local\" or \"hosted\".")
	}

	cfg, err := config.Load()
	if err != nil {
		return fatal(cli, "Configuration Error", fmt.Sprintf("Failed to load config:\n\n%v", err))
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(cfg.DataDir())

	switch {
	case *setKey:
		return runSetKey(cfg)
	case *history || *showRun != "":
		return runHistory(cfg, strings.Join(flag.Args(), " "), *showRun)
	}

	// Clean up old tmp dir in cache directory (crash recovery)
	if err := config.CleanupTempDir(); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("Warning: failed to cleanup old temp directory: %v", err)
	}

	if err := config.CreateTempDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create secure temp directory: %v\n", err)
		return 1
	}

	defer func() {
		if err := config.CleanupTempDir(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: failed to cleanup temp directory on exit: %v", err)
		}
	}()

	// One process per data directory: two would run code against the same scene
	lock := storage.NewInstanceLock(cfg.DataDir())
	isLocked, runningPID, err := lock.Check()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to check instance lock: %v\n", err)
		return 1
	}
	if isLocked {
		if oneShot {
			fmt.Fprintf(os.Stderr, "Another blendassist instance is using %s (PID %d)\n", cfg.DataDir(), runningPID)
			return 1
		}

		p := tea.NewProgram(ui.NewInstanceLockedModal(runningPID), tea.WithAltScreen())
		finalModel, err := p.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if m, ok := finalModel.(ui.InstanceLockedModal); !ok || !m.ForceDelete() {
			return 0
		}
		if err := lock.Unlock(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to delete lock file: %v\n", err)
			return 1
		}
	}

	if err := lock.Lock(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock instance: %v\n", err)
		return 1
	}

	assistant, err := session.Init(session.Deps{Config: cfg, Lock: lock})
	if err != nil {
		_ = lock.Unlock()
		fmt.Fprintf(os.Stderr, "Failed to start session: %v\n", err)
		return 1
	}

	defer func() {
		if err := assistant.Teardown(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: teardown failed: %v", err)
		}
	}()

	if oneShot {
		return runOnce(assistant, *prompt)
	}

	p := tea.NewProgram(
		ui.NewAppView(assistant, cfg, Version),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running blendassist: %v\n", err)
		return 1
	}
	return 0
}

// runOnce sends a single task and prints the generated code and the execution result.
func runOnce(assistant *session.Assistant, task string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := assistant.Send(ctx, task)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if !out.Response.OK() {
		fmt.Fprintf(os.Stderr, "Model request failed (%s): %s\n", out.Response.Failure.Kind, out.Response.Failure.Detail)
		return 1
	}

	fmt.Println(out.Response.Text)

	if !out.Execution.OK() {
		fmt.Fprintln(os.Stderr, out.Execution.Failure.Detail)
		return 1
	}

	fmt.Fprintln(os.Stderr, "Code executed successfully")
	return 0
}

// fatal reports a startup error in a modal, or on stderr outside the TUI.
func fatal(cli bool, title, message string) int {
	if cli {
		fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
		return 1
	}

	p := tea.NewProgram(ui.NewErrorModal(title, message), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 1
}
