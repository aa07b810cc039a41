package runtime

import (
	"context"

	"github.com/hupe1980/agentflow/core"
)

// AgentSpec identifies and configures the target agent of one invocation.
// It is an opaque descriptor from the engine's point of view; adapters map
// it onto provider parameters.
type AgentSpec struct {
	Name         string         `json:"name"`
	Instructions string         `json:"instructions"`
	Model        string         `json:"model"`
	OutputSchema map[string]any `json:"output_schema,omitempty"` // JSON Schema for structured output
}

// Request captures the fully resolved input of one invocation.
//
// Session semantics: when Session is non-nil the runtime both reads prior
// context through it and appends the completed exchange back through it.
// When Session is nil the Input slice is the complete context (isolated
// specs, or snapshot-expanded input from a non-accumulating phase) and the
// runtime must not write anywhere.
type Request struct {
	Agent    AgentSpec
	Input    []core.Item
	Session  core.SessionHandle
	Stream   bool
	MaxTurns int            // 0 = provider default
	Extra    map[string]any // adapter-specific pass-through parameters
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by the runtime.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Item         core.Item   `json:"item"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "content_filter",...
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Runtime is the external collaborator executing the actual model call.
// Execute returns a response channel (closed on completion) and a terminal
// error channel (buffered size 1, closed after at most one send). Adapters
// must respect context cancellation and surface provider refusals as
// *core.PolicyRejection on the error channel.
type Runtime interface {
	Execute(ctx context.Context, req Request) (<-chan Response, <-chan error)
}

// ExpandInput returns the full message context for a request: session
// history (when a session handle is present) followed by the request input.
// Store failures are wrapped as *core.HistoryAccessError.
func ExpandInput(ctx context.Context, req Request) ([]core.Item, error) {
	if req.Session == nil {
		return core.CloneItems(req.Input), nil
	}
	history, err := req.Session.GetItems(ctx, 0)
	if err != nil {
		return nil, wrapHistoryErr("get items", err)
	}
	out := make([]core.Item, 0, len(history)+len(req.Input))
	out = append(out, history...)
	out = append(out, core.CloneItems(req.Input)...)
	return out, nil
}

// CommitExchange appends the request input plus the final result through the
// session handle. It is a no-op without a session: the caller owns the
// context and nothing may be written.
func CommitExchange(ctx context.Context, req Request, result core.Item) error {
	if req.Session == nil {
		return nil
	}
	items := make([]core.Item, 0, len(req.Input)+1)
	items = append(items, core.CloneItems(req.Input)...)
	items = append(items, result.Clone())
	if err := req.Session.AddItems(ctx, items); err != nil {
		return wrapHistoryErr("add items", err)
	}
	return nil
}

// wrapHistoryErr wraps store errors once, preserving already-typed errors.
func wrapHistoryErr(op string, err error) error {
	switch err.(type) {
	case *core.HistoryAccessError, *core.InvariantViolation:
		return err
	default:
		return &core.HistoryAccessError{Op: op, Err: err}
	}
}
