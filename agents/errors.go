// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrService is the base error for agent service failures.
	ErrService = errors.New("service error")

	// ErrInvalidRequest indicates the request was malformed or rejected as invalid.
	ErrInvalidRequest = fmt.Errorf("%w: invalid request", ErrService)

	// ErrContentFilter indicates the prompt or completion was blocked by content filtering.
	ErrContentFilter = fmt.Errorf("%w: content filter", ErrInvalidRequest)

	// ErrAuth indicates an authentication or authorization failure.
	ErrAuth = fmt.Errorf("%w: authentication", ErrService)

	// ErrNotFound indicates the addressed resource does not exist.
	ErrNotFound = fmt.Errorf("%w: not found", ErrService)

	// ErrRateLimited indicates the service throttled the request.
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrService)

	// ErrInvalidResponse indicates the service returned an unexpected payload.
	ErrInvalidResponse = fmt.Errorf("%w: invalid response", ErrService)

	// ErrProcessingFailed indicates an uploaded file or vector store ended in
	// an error state.
	ErrProcessingFailed = fmt.Errorf("%w: processing failed", ErrService)

	// ErrRun is the base error for runs that did not complete.
	ErrRun = errors.New("run error")

	// ErrRunFailed indicates the run reached the failed state.
	ErrRunFailed = fmt.Errorf("%w: failed", ErrRun)

	// ErrRunCancelled indicates the run was cancelled, by the caller or the poll loop.
	ErrRunCancelled = fmt.Errorf("%w: cancelled", ErrRun)

	// ErrRunNotCompleted indicates the run ended expired or incomplete.
	ErrRunNotCompleted = fmt.Errorf("%w: not completed", ErrRun)

	// ErrTool is the base error for local tool failures.
	ErrTool = errors.New("tool error")

	// ErrToolExecution indicates a failure during tool invocation.
	ErrToolExecution = fmt.Errorf("%w: execution", ErrTool)

	// ErrUnknownTool indicates the service requested a function that is not registered.
	ErrUnknownTool = fmt.Errorf("%w: unknown tool", ErrTool)
)

// ServiceError provides rich context for non-2xx service responses.
// Use errors.As to extract it from a wrapped error chain.
type ServiceError struct {
	StatusCode int
	Message    string
	Code       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("service error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("service error %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// RunError reports a run that ended in a non-success state.
type RunError struct {
	RunID    string
	ThreadID string
	Status   RunStatus
	Code     string
	Message  string
	Err      error
}

func (e *RunError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("run %s %s (%s): %s", e.RunID, e.Status, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("run %s %s: %s", e.RunID, e.Status, e.Message)
	default:
		return fmt.Sprintf("run %s %s", e.RunID, e.Status)
	}
}

func (e *RunError) Unwrap() error { return e.Err }

// ToolError provides context for tool invocation failures.
type ToolError struct {
	ToolName string
	Message  string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q: %s", e.ToolName, e.Message)
}

func (e *ToolError) Unwrap() error { return e.Err }
