package domain

import "fmt"

// Error types for consistent error handling across the agent.

// ErrRemote indicates a backend answered with a non-success status.
// Body is the raw response; callers must not assume it parses.
type ErrRemote struct {
	Service string
	Status  int
	Body    string
}

func (e *ErrRemote) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
	}
	return e.Body
}

// ErrTransport indicates the call never produced a response (refused, reset, timeout).
type ErrTransport struct {
	Service string
	Err     error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("transport error [%s]: %v", e.Service, e.Err)
}

func (e *ErrTransport) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrStore indicates the profile store could not be read or written.
type ErrStore struct {
	Op  string
	Err error
}

func (e *ErrStore) Error() string {
	return fmt.Sprintf("profile store %s: %v", e.Op, e.Err)
}

func (e *ErrStore) Unwrap() error {
	return e.Err
}

// ErrProfiling indicates the language model output could not be turned into a profile.
type ErrProfiling struct {
	Reason string
	Err    error
}

func (e *ErrProfiling) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("profiling failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("profiling failed: %s", e.Reason)
}

func (e *ErrProfiling) Unwrap() error {
	return e.Err
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnsupported indicates the configured backend has no such operation.
type ErrUnsupported struct {
	Operation string
	Backend   string
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("%s is not supported by the %s backend", e.Operation, e.Backend)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
