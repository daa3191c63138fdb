// Package runner extracts Python from a model reply and executes it inside
// Blender.
//
// Execution is not sandboxed: the Executor is the single point where generated
// code gains the privileges of the host process.
package runner

import (
	"context"
	"fmt"
	"strings"

	"blendassist/config"
	"blendassist/model"
)

// ErrorPrefix starts every execution failure detail.
const ErrorPrefix = "Error executing Blender code:"

// Executor runs a Python snippet against the 3D scene.
type Executor interface {
	Execute(ctx context.Context, code string) error
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(ctx context.Context, code string) error

func (f ExecutorFunc) Execute(ctx context.Context, code string) error {
	return f(ctx, code)
}

// Options control snippet extraction.
type Options struct {
	StripFences bool
}

// Runner pairs an executor with extraction options.
type Runner struct {
	executor Executor
	opts     Options
}

// New creates a Runner.
func New(executor Executor, opts Options) *Runner {
	return &Runner{executor: executor, opts: opts}
}

// Run executes the code contained in reply.
func (r *Runner) Run(ctx context.Context, reply string) model.ExecutionResult {
	return RunGeneratedCode(ctx, reply, r.executor, r.opts)
}

// RunGeneratedCode extracts the snippet from rawReply and runs it once with
// executor. Scene changes made before a fault are kept.
func RunGeneratedCode(ctx context.Context, rawReply string, executor Executor, opts Options) (result model.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			if config.Debug && config.DebugLog != nil {
				config.DebugLog.Printf("[Runner] recovered panic: %v", r)
			}
			result = model.ExecutionFailed(fmt.Sprintf("%s %v", ErrorPrefix, r))
		}
	}()

	code := ExtractCode(rawReply, opts.StripFences)
	switch {
	case strings.TrimSpace(code) == "":
		return model.ExecutionFailed(ErrorPrefix + " empty snippet")
	case executor == nil:
		return model.ExecutionFailed(ErrorPrefix + " no executor configured")
	}

	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Runner] executing %d bytes of generated code", len(code))
	}

	if err := executor.Execute(ctx, code); err != nil {
		if config.Debug && config.DebugLog != nil {
			config.DebugLog.Printf("[Runner] execution failed: %v", err)
		}
		return model.ExecutionFailed(fmt.Sprintf("%s %v", ErrorPrefix, err))
	}

	return model.ExecutionSuccess()
}
