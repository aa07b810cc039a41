// Package agentflow provides a high-level façade over the flow, runner and
// history packages for composing deferred multi-agent workflows. Most
// applications interact with this package by:
//  1. Creating agents bound to a runtime (flow.New)
//  2. Writing a flow function that builds and forces execution specs,
//     optionally inside phase boundaries (flow.Phase)
//  3. Driving the flow through a Runner created via New() with a store,
//     sink and logger as needed
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable history store (history.SQLiteStore)
// and a structured logger.
package agentflow

import (
	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/logging"
	"github.com/hupe1980/agentflow/runner"
)

// Flow is the user-authored workflow function driven by a Runner.
type Flow = runner.Flow

// New creates a Runner for the given flow with optional overrides.
func New(flow Flow, optFns ...func(o *runner.Options)) *runner.Runner {
	return runner.New(flow, optFns...)
}

// WithStore configures the workflow's History Store.
func WithStore(store core.HistoryStore) func(o *runner.Options) {
	return func(o *runner.Options) { o.Store = store }
}

// WithSink configures the event sink receiving lifecycle and streaming events.
func WithSink(sink core.Sink) func(o *runner.Options) {
	return func(o *runner.Options) { o.Sink = sink }
}

// WithLogger configures the runner's logger.
func WithLogger(logger logging.Logger) func(o *runner.Options) {
	return func(o *runner.Options) { o.Logger = logger }
}
