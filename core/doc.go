// Package core provides the foundational domain types, interfaces and ambient
// execution scope used by AgentFlow. It defines the core abstractions for:
//
//   - Items (immutable conversation records composed of typed parts)
//   - Events (closed lifecycle/streaming union delivered to an optional sink)
//   - Scope (context-propagated ambient state: store, sink, active boundary)
//   - Boundary (scoped phase span with inherited snapshot + optional accumulation)
//   - HistoryStore / SessionHandle (pluggable conversation persistence)
//   - The shared error taxonomy (configuration, history access, runtime,
//     invariant violation, policy rejection)
//
// The package intentionally keeps implementation concerns (persistence
// engines, model providers, flow orchestration) out of scope, exposing small
// interfaces to enable custom backends and extensions.
package core
