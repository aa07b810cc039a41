package flow

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/internal/util"
	"github.com/hupe1980/agentflow/runtime"
	"github.com/xeipuuv/gojsonschema"
)

// OutputType declares the structured output expected from an agent: a name
// for diagnostics and a JSON Schema the final result must satisfy.
type OutputType struct {
	Name   string
	Schema map[string]any
}

// NewOutputType constructs an output type descriptor from a JSON Schema.
func NewOutputType(name string, schema map[string]any) *OutputType {
	return &OutputType{Name: name, Schema: schema}
}

// OutputTypeOf derives an output type descriptor from a Go struct, using json
// tags for field names and `description` tags for field documentation.
func OutputTypeOf(name string, v any) *OutputType {
	return &OutputType{Name: name, Schema: util.SchemaOf(v)}
}

// Validate checks the result text against the declared schema. A result that
// is not valid JSON or does not satisfy the schema is an AgentRuntimeError:
// the runtime failed to produce the requested shape.
func (t *OutputType) Validate(text string) error {
	if t == nil || t.Schema == nil {
		return nil
	}
	schemaLoader := gojsonschema.NewGoLoader(t.Schema)
	docLoader := gojsonschema.NewStringLoader(text)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return &core.AgentRuntimeError{Err: fmt.Errorf("output %s is not valid JSON: %w", t.Name, err)}
	}
	if !result.Valid() {
		return &core.AgentRuntimeError{Err: fmt.Errorf("output does not satisfy schema %s: %v", t.Name, result.Errors())}
	}
	return nil
}

// Result is the outcome of one forced spec.
type Result struct {
	Item  core.Item
	Usage *runtime.TokenUsage
}

// Text returns the textual payload of the result.
func (r *Result) Text() string { return r.Item.Text() }

// Decode unmarshals a structured result into v.
func (r *Result) Decode(v any) error {
	return json.Unmarshal([]byte(r.Item.Text()), v)
}
