package model

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a model call produced no text.
type FailureKind string

const (
	// FailureNetwork covers unreachable hosts, timeouts and non-2xx replies.
	FailureNetwork FailureKind = "network"
	// FailureUpstream covers preconditions on the upstream call, such as a missing credential.
	FailureUpstream FailureKind = "upstream"
	// FailureUnexpected covers malformed or absent response bodies and anything unclassified.
	FailureUnexpected FailureKind = "unexpected"
)

// ResponseFailure is the failure half of ModelResponse. It implements error so
// callers that prefer error values can use it directly.
type ResponseFailure struct {
	Kind   FailureKind
	Detail string
}

func (f *ResponseFailure) Error() string {
	return fmt.Sprintf("%s error: %s", f.Kind, f.Detail)
}

// ModelResponse is either Success{Text} (Failure == nil) or Failure{Kind, Detail}.
type ModelResponse struct {
	Text    string
	Failure *ResponseFailure
}

// Success builds a successful response
func Success(text string) ModelResponse {
	return ModelResponse{Text: text}
}

// Failure builds a failed response
func Failure(kind FailureKind, detail string) ModelResponse {
	return ModelResponse{Failure: &ResponseFailure{Kind: kind, Detail: detail}}
}

// OK reports whether the response carries text.
func (r ModelResponse) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil on success.
func (r ModelResponse) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// ExecutionResult is either Success (Failure == nil) or Failure{Detail}.
type ExecutionResult struct {
	Failure *ExecutionFailure
}

// ExecutionFailure describes a fault raised while running generated code.
type ExecutionFailure struct {
	Detail string
}

func (f *ExecutionFailure) Error() string {
	return f.Detail
}

// ExecutionSuccess builds a successful execution result
func ExecutionSuccess() ExecutionResult {
	return ExecutionResult{}
}

// ExecutionFailed builds a failed execution result
func ExecutionFailed(detail string) ExecutionResult {
	return ExecutionResult{Failure: &ExecutionFailure{Detail: detail}}
}

// OK reports whether execution completed without a fault.
func (r ExecutionResult) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil on success.
func (r ExecutionResult) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// ProviderError lets a provider tell the model client which failure kind an error belongs to.
type ProviderError struct {
	Kind FailureKind
	Err  error
}

func (e *ProviderError) Error() string {
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NetworkError wraps err as a transport-level failure.
func NetworkError(err error) error {
	return &ProviderError{Kind: FailureNetwork, Err: err}
}

// MalformedError wraps err as a malformed or absent response body.
func MalformedError(err error) error {
	return &ProviderError{Kind: FailureUnexpected, Err: err}
}

// KindOf returns the failure kind carried by err, or FailureUnexpected when err
// does not carry one.
func KindOf(err error) FailureKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return FailureUnexpected
}
