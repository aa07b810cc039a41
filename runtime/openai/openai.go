// Package openai provides a runtime.Runtime implementation backed by the
// OpenAI Chat Completions API (including streaming). It adapts AgentFlow's
// resolved request (input items + optional session handle) into the SDK's
// message format and back.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/runtime"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI runtime adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Runtime wraps the OpenAI Chat Completions API behind the generic
// runtime.Runtime interface.
type Runtime struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI runtime using the official client.
func New(optFns ...func(o *Options)) *Runtime {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI runtime from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Runtime {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runtime{client: client, opts: opts}
}

// Execute implements unified streaming / non-streaming generation. The
// completed exchange is committed through the session handle after the final
// chunk; provider refusals surface as *core.PolicyRejection.
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
		params := r.buildParams(req, buildMessages(req.Agent, expanded))

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

// buildMessages converts expanded items into OpenAI chat messages, prefixed
// with the agent instructions as a system message.
func buildMessages(agent runtime.AgentSpec, items []core.Item) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	instructions := agent.Instructions
	if agent.OutputSchema != nil {
		schema, _ := json.Marshal(agent.OutputSchema)
		instructions += "\n\nRespond with a single JSON object conforming to this JSON Schema:\n" + string(schema)
	}
	if instructions != "" {
		messages = append(messages, openai.SystemMessage(instructions))
	}
	for _, it := range items {
		text := itemText(it)
		if text == "" {
			continue
		}
		switch it.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(text))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(text))
		default:
			messages = append(messages, openai.UserMessage(text))
		}
	}
	return messages
}

// itemText flattens text and structured data parts into a single string.
// Reasoning parts are never sent back to the provider.
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

// buildParams assembles the OpenAI request parameters, applying per-request
// Extra overrides over the adapter defaults.
func (r *Runtime) buildParams(
	req runtime.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	model := r.opts.Model
	if req.Agent.Model != "" {
		model = req.Agent.Model
	}
	temperature := r.opts.Temperature
	if t, ok := req.Extra["temperature"].(float64); ok {
		temperature = t
	}
	maxTokens := r.opts.MaxCompletionTokens
	if mt, ok := req.Extra["max_tokens"].(int); ok {
		maxTokens = int64(mt)
	}
	return openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               model,
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
}

// handleStreaming forwards partial chunks and returns the assembled final item.
func (r *Runtime) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- runtime.Response,
) (core.Item, error) {
	stream := r.client.Chat.Completions.NewStreaming(ctx, params)
	var textBuilder strings.Builder
	finishReason := ""
	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				textBuilder.WriteString(ch.Delta.Content)
				select {
				case <-ctx.Done():
					return core.Item{}, ctx.Err()
				case out <- runtime.Response{
					Partial: true,
					Item:    core.Item{Role: "assistant", Parts: []core.Part{core.TextPart{Text: ch.Delta.Content}}},
				}:
				}
			}
			if ch.FinishReason != "" {
				finishReason = ch.FinishReason
			}
		}
	}
	if err := stream.Err(); err != nil {
		return core.Item{}, fmt.Errorf("openai streaming error: %w", err)
	}
	if finishReason == "content_filter" {
		return core.Item{}, &core.PolicyRejection{Reason: "openai content filter"}
	}
	final := core.NewAssistantItem(textBuilder.String())
	select {
	case <-ctx.Done():
		return core.Item{}, ctx.Err()
	case out <- runtime.Response{ID: core.NewID(), Item: final, FinishReason: finishReason}:
	}
	return final, nil
}

// handleNonStreaming performs a normal completion and emits one final response.
func (r *Runtime) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- runtime.Response,
) (core.Item, error) {
	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return core.Item{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.Item{}, fmt.Errorf("no choices returned")
	}
	ch0 := resp.Choices[0]
	if ch0.FinishReason == "content_filter" {
		return core.Item{}, &core.PolicyRejection{Reason: "openai content filter"}
	}
	if ch0.Message.Refusal != "" {
		return core.Item{}, &core.PolicyRejection{Reason: ch0.Message.Refusal}
	}
	final := core.NewAssistantItem(ch0.Message.Content)
	usage := &runtime.TokenUsage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	select {
	case <-ctx.Done():
		return core.Item{}, ctx.Err()
	case out <- runtime.Response{ID: resp.ID, Item: final, FinishReason: ch0.FinishReason, Usage: usage}:
	}
	return final, nil
}
