package flow

import (
	"context"
	"fmt"
	"maps"

	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/runtime"
)

// Spec is an immutable, deferred description of one pending invocation.
// Modifiers are pure: each returns a new spec and the order of application
// is irrelevant. Forcing a spec with Run triggers evaluation; forcing the
// same spec twice issues two independent invocations.
type Spec struct {
	agent    *Agent
	input    core.Item
	stream   bool
	isolated bool
	silent   bool
	maxTurns int // 0 = unset
	extra    map[string]any
	output   *OutputType
	buildErr error
}

// clone returns a copy with an independent extra map.
func (s *Spec) clone() *Spec {
	c := *s
	if s.extra != nil {
		c.extra = maps.Clone(s.extra)
	}
	return &c
}

// Stream enables streaming mode: partial fragments are forwarded to the
// ambient sink as RawStreamFragment events while the spec is forced.
func (s *Spec) Stream() *Spec {
	c := s.clone()
	c.stream = true
	return c
}

// Isolate opts the invocation out of all ambient context: no history is
// read, no session is written, regardless of boundary depth.
func (s *Spec) Isolate() *Spec {
	c := s.clone()
	c.isolated = true
	return c
}

// Silent suppresses sink forwarding only. It never changes where the
// exchange is written; that is determined by the ambient scope and Isolate.
func (s *Spec) Silent() *Spec {
	c := s.clone()
	c.silent = true
	return c
}

// LimitTurns caps the runtime's internal turn count. A non-positive n is a
// configuration error surfaced at forcing time, before any invocation.
func (s *Spec) LimitTurns(n int) *Spec {
	c := s.clone()
	if n <= 0 {
		c.buildErr = &core.ConfigurationError{Reason: fmt.Sprintf("turn limit must be positive, got %d", n)}
		return c
	}
	c.maxTurns = n
	return c
}

// WithExtra attaches an adapter-specific execution parameter.
func (s *Spec) WithExtra(key string, value any) *Spec {
	c := s.clone()
	if c.extra == nil {
		c.extra = map[string]any{}
	}
	c.extra[key] = value
	return c
}

// WithOutputType declares the expected structured output, overriding the
// agent's default. The final result is validated against its schema.
func (s *Spec) WithOutputType(t *OutputType) *Spec {
	c := s.clone()
	c.output = t
	return c
}

// Run forces the spec: it resolves the ambient context, invokes the runtime
// and returns the final result. Configuration and resolution errors fail
// fast before the runtime is touched; runtime errors propagate unchanged to
// the caller with no implicit retry.
func (s *Spec) Run(ctx context.Context) (*Result, error) {
	if s.buildErr != nil {
		return nil, s.buildErr
	}
	if err := ctx.Err(); err != nil {
		return nil, wrapRuntimeErr(err, nil)
	}

	res, err := resolve(ctx, s)
	if err != nil {
		return nil, err
	}

	desc, err := s.agent.descriptor(s.output)
	if err != nil {
		return nil, err
	}

	req := runtime.Request{
		Agent:    desc,
		Input:    res.input,
		Session:  res.session,
		Stream:   s.stream,
		MaxTurns: s.maxTurns,
		Extra:    s.extra,
	}

	final, usage, err := s.consume(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.output != nil {
		if err := s.output.Validate(final.Text()); err != nil {
			return nil, err
		}
	}

	if !s.stream && !s.silent {
		if err := core.Emit(ctx, core.NewResultProduced(final)); err != nil {
			return nil, err
		}
	}

	// A completed exchange becomes eligible for persist-on-exit. Isolated
	// forcings never touch the boundary.
	if b := core.CurrentBoundary(ctx); b != nil && !s.isolated {
		b.RecordExchange(res.request, final)
	}

	return &Result{Item: final, Usage: usage}, nil
}

// consume drains the runtime channels, forwarding stream fragments to the
// sink and collecting the final item. Event delivery is synchronous: the
// forcing call does not finish until the sink has accepted every fragment.
// The runtime runs under a derived context cancelled on return, so an early
// abort (sink failure, runtime error) never strands the producer on a full
// channel.
func (s *Spec) consume(ctx context.Context, req runtime.Request) (core.Item, *runtime.TokenUsage, error) {
	rtCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	respCh, errCh := s.agent.rt.Execute(rtCtx, req)

	var (
		final    core.Item
		usage    *runtime.TokenUsage
		partials []core.Item
		gotFinal bool
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return core.Item{}, nil, wrapRuntimeErr(ctx.Err(), partials)
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				partials = append(partials, resp.Item)
				if s.stream && !s.silent {
					if err := core.Emit(ctx, core.NewRawStreamFragment(resp.Item)); err != nil {
						return core.Item{}, nil, err
					}
				}
				continue
			}
			final = resp.Item
			gotFinal = true
			if resp.Usage != nil {
				usage = resp.Usage
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return core.Item{}, nil, wrapRuntimeErr(err, partials)
			}
		}
	}

	if !gotFinal {
		return core.Item{}, nil, wrapRuntimeErr(fmt.Errorf("runtime closed without a final response"), partials)
	}

	return final, usage, nil
}

// wrapRuntimeErr wraps runtime failures as AgentRuntimeError carrying any
// partial stream state. Already-typed taxonomy errors pass through unchanged.
func wrapRuntimeErr(err error, partials []core.Item) error {
	switch err.(type) {
	case *core.PolicyRejection, *core.HistoryAccessError, *core.InvariantViolation, *core.ConfigurationError, *core.AgentRuntimeError:
		return err
	default:
		return &core.AgentRuntimeError{Err: err, Partial: partials}
	}
}
