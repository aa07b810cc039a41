// Package runner implements the top-level invocation driver for AgentFlow.
//
// A Runner owns the History Store and Event Sink for one workflow. Per
// invocation it establishes a fresh ambient execution scope (no active
// boundary, given store/sink), invokes the flow function with that scope,
// and guarantees the caller's scope is untouched on every exit path.
//
// # Responsibilities (abridged)
//   - Scope injection & guaranteed teardown
//   - Direct asynchronous invocation (Call)
//   - Deferred invocation handles (Defer / Handle)
//   - Synchronous driving adapter for callers without native concurrency
//     (CallSync / Handle.Sync)
//
// The Runner never swallows flow errors; it only guarantees teardown.
package runner
