package core

import "fmt"

// ConfigurationError reports invalid modifier or constructor arguments. It is
// raised before any runtime invocation is attempted.
type ConfigurationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// HistoryAccessError wraps a failure reading from or writing to a
// HistoryStore or SessionHandle.
type HistoryAccessError struct {
	Op  string // "get items", "add items",...
	Err error
}

// Error implements the error interface.
func (e *HistoryAccessError) Error() string {
	return fmt.Sprintf("history access error (%s): %v", e.Op, e.Err)
}

// Unwrap exposes the underlying store error.
func (e *HistoryAccessError) Unwrap() error { return e.Err }

// AgentRuntimeError wraps a failure surfaced by the Agent Runtime while
// executing a forced spec. Partial holds any stream fragments received
// before the failure.
type AgentRuntimeError struct {
	Err     error
	Partial []Item
}

// Error implements the error interface.
func (e *AgentRuntimeError) Error() string {
	return fmt.Sprintf("agent runtime error: %v", e.Err)
}

// Unwrap exposes the underlying runtime error.
func (e *AgentRuntimeError) Unwrap() error { return e.Err }

// InvariantViolation signals a corrupted boundary or scope stack. It is
// fatal and never retried: it indicates an implementation bug, not a
// recoverable condition.
type InvariantViolation struct {
	Reason string
}

// Error implements the error interface.
func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Reason)
}

// PolicyRejection is a surfaced, typed refusal: the Agent Runtime declined
// to proceed. It is distinct from a crash and carries the provider's reason.
type PolicyRejection struct {
	Reason string
}

// Error implements the error interface.
func (e *PolicyRejection) Error() string {
	return fmt.Sprintf("policy rejection: %s", e.Reason)
}
