// Package anthropic provides a runtime.Runtime implementation backed by the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/runtime"
)

// Options configures the Anthropic runtime adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Runtime wraps the Anthropic Messages API behind the generic
// runtime.Runtime interface.
type Runtime struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic runtime using the official client.
func New(optFns ...func(o *Options)) *Runtime {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Runtime{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic runtime from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Runtime {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runtime{client: client, opts: opts}
}

// Execute implements unified streaming / non-streaming generation. The
// completed exchange is committed through the session handle after the final
// message; provider refusals surface as *core.PolicyRejection.
func (r *Runtime) Execute(ctx context.Context, req runtime.Request) (<-chan runtime.Response, <-chan error) {
	out := make(chan runtime.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		expanded, err := runtime.ExpandInput(ctx, req)
		if err != nil {
			errCh <- err
			return
		}

		params := anthropic.MessageNewParams{
			Model:       r.opts.Model,
			Messages:    buildMessages(expanded),
			MaxTokens:   r.maxTokens(req),
			Temperature: anthropic.Float(r.temperature(req)),
		}
		if system := systemBlocks(req.Agent, expanded); len(system) > 0 {
			params.System = system
		}

		var final core.Item
		if req.Stream {
			final, err = r.handleStreaming(ctx, params, out)
		} else {
			final, err = r.handleNonStreaming(ctx, params, out)
		}
		if err != nil {
			errCh <- err
			return
		}
		if err := runtime.CommitExchange(ctx, req, final); err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

func (r *Runtime) temperature(req runtime.Request) float64 {
	if t, ok := req.Extra["temperature"].(float64); ok {
		return t
	}
	return r.opts.Temperature
}

func (r *Runtime) maxTokens(req runtime.Request) int64 {
	if mt, ok := req.Extra["max_tokens"].(int); ok {
		return int64(mt)
	}
	return r.opts.MaxTokens
}

// buildMessages converts expanded items to Anthropic message format. System
// items are handled separately; reasoning parts are never echoed back.
func buildMessages(items []core.Item) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, it := range items {
		if it.Role == "system" {
			continue
		}
		text := itemText(it)
		if text == "" {
			continue
		}
		if it.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
	}

	return messages
}

// systemBlocks assembles the system prompt from agent instructions, the
// requested output schema and any system items in the expanded input.
func systemBlocks(agent runtime.AgentSpec, items []core.Item) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam

	instructions := agent.Instructions
	if agent.OutputSchema != nil {
		schema, _ := json.Marshal(agent.OutputSchema)
		instructions += "\n\nRespond with a single JSON object conforming to this JSON Schema:\n" + string(schema)
	}
	if instructions != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: instructions})
	}

	for _, it := range items {
		if it.Role != "system" {
			continue
		}
		if text := itemText(it); text != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: text})
		}
	}

	return blocks
}

// itemText flattens text and structured data parts into a single string.
func itemText(it core.Item) string {
	var sb strings.Builder
	for _, p := range it.Parts {
		switch v := p.(type) {
		case core.TextPart:
			sb.WriteString(v.Text)
		case core.DataPart:
			if data, err := json.Marshal(v.Data); err == nil {
				sb.Write(data)
			}
		}
	}
	return sb.String()
}

// handleNonStreaming performs a normal message call and emits one final response.
func (r *Runtime) handleNonStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- runtime.Response,
) (core.Item, error) {
	resp, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return core.Item{}, fmt.Errorf("anthropic api error: %w", err)
	}

	if resp.StopReason == "refusal" {
		return core.Item{}, &core.PolicyRejection{Reason: "anthropic refusal"}
	}

	var parts []core.Part
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textBlock := block.AsText()
			if textBlock.Text != "" {
				parts = append(parts, core.TextPart{Text: textBlock.Text})
			}
		case "thinking":
			thinkingBlock := block.AsThinking()
			if thinkingBlock.Thinking != "" {
				parts = append(parts, core.ReasoningPart{Text: thinkingBlock.Thinking})
			}
		}
	}

	finishReason := "stop"
	if resp.StopReason != "" {
		finishReason = string(resp.StopReason)
	}

	final := core.Item{ID: core.NewID(), Role: "assistant", Parts: parts}
	usage := &runtime.TokenUsage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}

	select {
	case <-ctx.Done():
		return core.Item{}, ctx.Err()
	case out <- runtime.Response{ID: resp.ID, Item: final, FinishReason: finishReason, Usage: usage}:
	}

	return final, nil
}

// handleStreaming forwards text deltas and returns the assembled final item.
func (r *Runtime) handleStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- runtime.Response,
) (core.Item, error) {
	stream := r.client.Messages.NewStreaming(ctx, params)

	var textBuilder strings.Builder
	finishReason := "stop"

	for stream.Next() {
		event := stream.Current()
		switch event.Type {
		case "content_block_delta":
			delta := event.AsContentBlockDelta()
			if delta.Delta.Text != "" {
				textBuilder.WriteString(delta.Delta.Text)
				select {
				case <-ctx.Done():
					return core.Item{}, ctx.Err()
				case out <- runtime.Response{
					Partial: true,
					Item:    core.Item{Role: "assistant", Parts: []core.Part{core.TextPart{Text: delta.Delta.Text}}},
				}:
				}
			}
		case "message_delta":
			delta := event.AsMessageDelta()
			if delta.Delta.StopReason != "" {
				finishReason = string(delta.Delta.StopReason)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return core.Item{}, fmt.Errorf("anthropic streaming error: %w", err)
	}

	if finishReason == "refusal" {
		return core.Item{}, &core.PolicyRejection{Reason: "anthropic refusal"}
	}

	final := core.NewAssistantItem(textBuilder.String())
	select {
	case <-ctx.Done():
		return core.Item{}, ctx.Err()
	case out <- runtime.Response{ID: core.NewID(), Item: final, FinishReason: finishReason}:
	}

	return final, nil
}
