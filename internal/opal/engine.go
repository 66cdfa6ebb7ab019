// internal/opal/engine.go
package opal

import (
	"errors"

	"github.com/sievelabs/opalfix/internal/types"
)

/*
 * Transform engine.
 *
 * Applies the rule catalog in fixed order, feeding each rule the output
 * of the rules before it and aggregating all feedback into a single
 * ValidationResult.
 *
 * The engine is pure and synchronous: identical (query, context) input
 * always yields an identical result, no shared mutable state, no I/O.
 * Invocations are independent and safe to run concurrently without
 * coordination. Timeouts, retries, and anything that talks to the
 * platform belong to the orchestrator, never here.
 *
 * There are exactly two outcomes: silent correction (zero or more rules
 * fired, Blocked unset) or an explicit block (Blocked set, query
 * unchanged). No partial-fix state exists; a blocking rule discards any
 * fixes earlier rules produced in the same invocation.
 */

// Engine applies the anti-pattern catalog to OPAL queries.
type Engine struct {
	catalog     []Rule
	alignWindow string
}

// EngineOption adjusts engine construction.
type EngineOption func(*Engine)

// WithAlignWindow sets the aggregation window used when the catalog
// synthesizes align stages. An empty window keeps DefaultAlignWindow.
func WithAlignWindow(window string) EngineOption {
	return func(e *Engine) {
		if window != "" {
			e.alignWindow = window
		}
	}
}

// NewEngine creates an engine over the fixed rule catalog.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{alignWindow: DefaultAlignWindow}
	for _, opt := range opts {
		opt(e)
	}
	e.catalog = catalogWith(e.alignWindow)
	return e
}

// Rules returns the catalog rule names in application order.
func (e *Engine) Rules() []string {
	names := make([]string, len(e.catalog))
	for i, r := range e.catalog {
		names[i] = r.Name()
	}
	return names
}

// Apply runs every catalog rule against the query in order and returns
// the transformed query plus one feedback entry per rewrite. When no
// rule fires the original query text is returned byte-for-byte.
func (e *Engine) Apply(query string, qctx types.QueryContext) types.ValidationResult {
	result := types.ValidationResult{
		OriginalQuery:    query,
		TransformedQuery: query,
	}

	p := Parse(query)
	if p.Len() == 0 {
		return result
	}

	for _, rule := range e.catalog {
		matches := rule.Detect(p, qctx)
		if len(matches) == 0 {
			continue
		}

		fixes, err := rule.Rewrite(p, matches)
		if err != nil {
			var block *types.BlockError
			if errors.As(err, &block) {
				// Blocked invariant: query unchanged, no partial fixes.
				result.TransformedQuery = query
				result.Applied = nil
				result.Blocked = block.Error()
				return result
			}
			// Rewriters are total on detected matches; a non-block error
			// means the rule declined, so the query moves on untouched
			// by this rule.
			continue
		}
		result.Applied = append(result.Applied, fixes...)
	}

	if len(result.Applied) > 0 {
		result.TransformedQuery = p.Render()
	}
	return result
}
