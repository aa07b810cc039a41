package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentflow/core"
)

// MockRuntime is a lightweight in-memory Runtime useful for tests &
// examples. It answers with canned completions keyed by the text of the last
// input item, streams character fragments when requested, and records every
// request it receives for assertions.
type MockRuntime struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []Request
	failWith  error
	rejectAll string
}

// NewMockRuntime constructs an empty MockRuntime.
func NewMockRuntime() *MockRuntime {
	return &MockRuntime{responses: make(map[string]string)}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockRuntime) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailWith makes every subsequent Execute surface err on the error channel.
func (m *MockRuntime) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// RejectWith makes every subsequent Execute surface a PolicyRejection.
func (m *MockRuntime) RejectWith(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejectAll = reason
}

// Calls returns a copy of all requests received so far.
func (m *MockRuntime) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent request and whether one exists.
func (m *MockRuntime) LastCall() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Request{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Execute implements Runtime; it expands the session context, emits optional
// streaming fragments, commits the exchange through the session handle and
// closes the channels.
func (m *MockRuntime) Execute(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.calls = append(m.calls, req)
	failWith := m.failWith
	rejectAll := m.rejectAll
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if failWith != nil {
			errCh <- failWith
			return
		}
		if rejectAll != "" {
			errCh <- &core.PolicyRejection{Reason: rejectAll}
			return
		}
		if len(req.Input) == 0 {
			errCh <- fmt.Errorf("no input provided")
			return
		}

		expanded, err := ExpandInput(ctx, req)
		if err != nil {
			errCh <- err
			return
		}
		last := expanded[len(expanded)-1]

		m.mu.Lock()
		full := m.responses[last.Text()]
		m.mu.Unlock()
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", last.Text())
		}

		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Item:    core.Item{Role: "assistant", Parts: []core.Part{core.TextPart{Text: string(r)}}},
				}:
				}
			}
		}

		final := core.NewAssistantItem(full)
		if err := CommitExchange(ctx, req, final); err != nil {
			errCh <- err
			return
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{ID: core.NewID(), Item: final, FinishReason: "stop"}:
		}
	}()

	return respCh, errCh
}
