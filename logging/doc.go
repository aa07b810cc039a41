// Package logging provides a minimal logging interface and adapters for AgentFlow.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the runner, stores and runtimes use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - FlowLogger with contextual helpers for flows, phases and runtime calls
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	r := runner.New(myFlow, func(o *runner.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
