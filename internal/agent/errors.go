package agent

import (
	"errors"
	"fmt"
)

// Error is a normalized provider failure. Adapters map vendor SDK errors into
// it so probes can report failures uniformly.
type Error struct {
	Provider string
	Status   int
	Code     string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Provider != "" && e.Message != "":
		return e.Provider + ": " + e.Message
	case e.Message != "":
		return e.Message
	case e.Provider != "":
		return e.Provider + ": error"
	}
	return "error"
}

func (e *Error) Unwrap() error { return e.Cause }

func IsAuth(err error) bool {
	var e *Error
	return errors.As(err, &e) && (e.Status == 401 || e.Status == 403)
}

func IsRateLimited(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == 429
}

// NoSuchToolError is returned when the model calls a tool the agent does not
// have.
type NoSuchToolError struct {
	ToolName string
}

func (e *NoSuchToolError) Error() string {
	return fmt.Sprintf("model called unknown tool %q", e.ToolName)
}

// InvalidToolInputError is returned when tool-call arguments fail the tool's
// input schema.
type InvalidToolInputError struct {
	ToolName   string
	ToolCallID string
	Cause      error
}

func (e *InvalidToolInputError) Error() string {
	return fmt.Sprintf("invalid input for tool %q: %v", e.ToolName, e.Cause)
}

func (e *InvalidToolInputError) Unwrap() error { return e.Cause }

// ToolExecutionError wraps a failure inside a tool handler.
type ToolExecutionError struct {
	ToolName   string
	ToolCallID string
	Cause      error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.ToolName, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }
