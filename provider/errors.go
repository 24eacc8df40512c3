package provider

import (
	"fmt"
	"time"
)

// ConnectionError indicates a provider could not be launched or failed its
// handshake. Nothing is registered for the provider when this is returned.
// NotFound is set when the launch command itself could not be located.
type ConnectionError struct {
	Provider string
	Cause    error
	NotFound bool
}

func (e *ConnectionError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("provider %q: command not found: %v", e.Provider, e.Cause)
	}
	return fmt.Sprintf("provider %q: connection failed: %v", e.Provider, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// ToolNotFoundError indicates no connected provider owns the requested tool.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found on any connected provider", e.Tool)
}

// ToolTimeoutError indicates a tool call exceeded its per-call timeout.
type ToolTimeoutError struct {
	Tool     string
	Provider string
	Timeout  time.Duration
}

func (e *ToolTimeoutError) Error() string {
	return fmt.Sprintf("tool %q on provider %q timed out after %s", e.Tool, e.Provider, e.Timeout)
}

// ToolExecutionError indicates the provider executed the tool and reported
// a failure.
type ToolExecutionError struct {
	Tool     string
	Provider string
	Cause    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q on provider %q failed: %v", e.Tool, e.Provider, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }
