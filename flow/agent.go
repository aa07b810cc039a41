package flow

import (
	"maps"

	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/internal/util"
	"github.com/hupe1980/agentflow/runtime"
)

// Options configures an Agent.
type Options struct {
	// Instructions is the system prompt handed to the runtime. It may contain
	// Go template markers resolved against InstructionVars.
	Instructions string
	// InstructionVars supplies values for template markers in Instructions.
	InstructionVars map[string]any
	// Model selects the provider model; empty uses the adapter default.
	Model string
	// OutputType declares the expected structured output. Forced specs
	// validate the final result against its schema.
	OutputType *OutputType
	// Extra holds default execution parameters merged into every spec
	// created by this agent. Per-spec WithExtra values take precedence.
	Extra map[string]any
}

// Agent is a factory for execution specs: calling it describes an invocation
// without performing one. The agent itself is stateless; all per-invocation
// state lives on the spec and in the ambient scope at forcing time.
type Agent struct {
	name string
	rt   runtime.Runtime
	opts Options
}

// New constructs an Agent bound to a runtime.
func New(name string, rt runtime.Runtime, optFns ...func(o *Options)) *Agent {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{name: name, rt: rt, opts: opts}
}

// Name returns the agent's identifier.
func (a *Agent) Name() string { return a.name }

// Call creates a deferred execution spec for raw text input. Nothing runs
// until the spec is forced with Run.
func (a *Agent) Call(input string) *Spec {
	return a.CallItem(core.NewUserItem(input))
}

// CallItem creates a deferred execution spec from a prebuilt item, allowing
// structured payload input.
func (a *Agent) CallItem(input core.Item) *Spec {
	s := &Spec{agent: a, input: input, output: a.opts.OutputType}
	if len(a.opts.Extra) > 0 {
		s.extra = maps.Clone(a.opts.Extra)
	}
	if len(input.Parts) == 0 {
		s.buildErr = &core.ConfigurationError{Reason: "agent " + a.name + " called with empty input"}
	}
	return s
}

// descriptor converts the agent into the runtime descriptor for one
// invocation, rendering instruction templates against the agent's variables.
func (a *Agent) descriptor(out *OutputType) (runtime.AgentSpec, error) {
	instructions, err := util.RenderTemplate(a.opts.Instructions, a.opts.InstructionVars)
	if err != nil {
		return runtime.AgentSpec{}, &core.ConfigurationError{Reason: "agent " + a.name + " has invalid instructions: " + err.Error()}
	}
	d := runtime.AgentSpec{Name: a.name, Instructions: instructions, Model: a.opts.Model}
	if out != nil {
		d.OutputSchema = out.Schema
	}
	return d, nil
}
