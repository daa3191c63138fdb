package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"blendassist/config"
)

// BlenderExecutor runs snippets in a headless Blender process.
type BlenderExecutor struct {
	// Path is the Blender executable.
	Path string
	// Scene is the .blend file to open; empty starts from the factory scene.
	Scene string
	// SaveScene writes the scene back after the snippet ran, even after a fault.
	SaveScene bool
	// Timeout bounds a single run; zero means no limit.
	Timeout time.Duration
	// WorkDir holds per-run script directories; empty uses the OS temp dir.
	WorkDir string
}

// NewBlenderExecutor builds an executor from the [blender] config section.
func NewBlenderExecutor(cfg *config.Config) *BlenderExecutor {
	path := cfg.Blender.Path
	if path == "" {
		path = "blender"
	}
	return &BlenderExecutor{
		Path:      path,
		Scene:     cfg.ScenePath(),
		SaveScene: cfg.Blender.SaveScene,
		Timeout:   time.Duration(cfg.Blender.TimeoutSeconds) * time.Second,
		WorkDir:   config.GetTempDir(),
	}
}

// ExecError is returned when Blender reports a fault in the snippet.
type ExecError struct {
	ExitCode int
	Output   string
}

func (e *ExecError) Error() string {
	if line := lastLine(e.Output); line != "" {
		return line
	}
	return fmt.Sprintf("blender exited with status %d", e.ExitCode)
}

// Execute implements Executor.
func (b *BlenderExecutor) Execute(ctx context.Context, code string) error {
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	if b.WorkDir != "" {
		if err := config.EnsureDir(b.WorkDir); err != nil {
			return fmt.Errorf("failed to create work directory: %w", err)
		}
	}
	runDir, err := os.MkdirTemp(b.WorkDir, "run-")
	if err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	defer os.RemoveAll(runDir)

	snippetPath := filepath.Join(runDir, "snippet.py")
	if err := os.WriteFile(snippetPath, []byte(code), 0600); err != nil {
		return fmt.Errorf("failed to write snippet: %w", err)
	}

	driverPath := filepath.Join(runDir, "driver.py")
	if err := os.WriteFile(driverPath, []byte(DriverScript(snippetPath, b.SaveScene && b.Scene != "")), 0600); err != nil {
		return fmt.Errorf("failed to write driver script: %w", err)
	}

	cmd := exec.CommandContext(ctx, b.Path, b.Args(driverPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// Blender may leave helper processes holding stderr open after a kill
	cmd.WaitDelay = 2 * time.Second

	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Runner] %s %s", b.Path, strings.Join(cmd.Args[1:], " "))
	}

	err = cmd.Run()
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("blender run aborted: %w", ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExecError{ExitCode: exitErr.ExitCode(), Output: stderr.String()}
	}
	return fmt.Errorf("failed to start blender: %w", err)
}

// Args returns the Blender command line for a driver script.
func (b *BlenderExecutor) Args(driverPath string) []string {
	args := []string{"--background"}
	if b.Scene != "" {
		args = append(args, b.Scene)
	} else {
		args = append(args, "--factory-startup")
	}
	return append(args, "--python-exit-code", "1", "--python", driverPath)
}

// DriverScript returns the Python that runs the snippet at snippetPath with bpy
// in scope, prints the traceback on a fault and optionally saves the scene.
func DriverScript(snippetPath string, save bool) string {
	saveFlag := "False"
	if save {
		saveFlag = "True"
	}

	var sb strings.Builder
	sb.WriteString("import sys\nimport traceback\nimport bpy\n\n")
	sb.WriteString("_path = " + strconv.Quote(snippetPath) + "\n")
	sb.WriteString("_ok = True\n")
	sb.WriteString("try:\n")
	sb.WriteString("    with open(_path, encoding=\"utf-8\") as _f:\n")
	sb.WriteString("        _src = _f.read()\n")
	sb.WriteString("    exec(compile(_src, \"BlendAssist_Generated_Code.py\", \"exec\"), {\"__name__\": \"__main__\", \"bpy\": bpy})\n")
	// sys.exit() and sys.exit(0) inside a snippet are a normal finish
	sb.WriteString("except SystemExit as _exit:\n")
	sb.WriteString("    if _exit.code not in (None, 0):\n")
	sb.WriteString("        _ok = False\n")
	sb.WriteString("        traceback.print_exc()\n")
	sb.WriteString("except BaseException:\n")
	sb.WriteString("    _ok = False\n")
	sb.WriteString("    traceback.print_exc()\n\n")
	sb.WriteString("if " + saveFlag + ":\n")
	sb.WriteString("    try:\n")
	sb.WriteString("        bpy.ops.wm.save_mainfile()\n")
	sb.WriteString("    except BaseException:\n")
	sb.WriteString("        _ok = False\n")
	sb.WriteString("        traceback.print_exc()\n\n")
	sb.WriteString("sys.stderr.flush()\n")
	sb.WriteString("if not _ok:\n")
	sb.WriteString("    sys.exit(1)\n")
	return sb.String()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
