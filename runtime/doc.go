// Package runtime defines the Agent Runtime contract: the external engine
// that executes the actual model call for a forced execution spec. AgentFlow
// core never talks to a provider directly; it hands the runtime a resolved
// input plus an optional session handle and consumes the response stream.
//
// Provider adapters live in the runtime/openai and runtime/anthropic
// subpackages. MockRuntime offers a deterministic in-memory implementation
// for tests and examples.
package runtime
