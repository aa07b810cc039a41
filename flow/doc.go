// Package flow is the authoring surface of AgentFlow. Flow code builds
// deferred execution specs through an Agent factory, composes them with pure
// modifiers, and triggers them explicitly with Run. Phase opens a scoped
// boundary that inherits read-only history, optionally accumulates its own
// conversation, and optionally flushes the final exchange back to the
// workflow's History Store on exit.
//
// Nothing in this package executes a model call by itself; forcing a spec
// resolves the ambient context and hands the result to the configured
// runtime.Runtime.
package flow
