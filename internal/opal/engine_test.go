// internal/opal/engine_test.go
package opal

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/sievelabs/opalfix/internal/types"
)

func TestApply_MultiTermScenario(t *testing.T) {
	engine := NewEngine()
	result := engine.Apply("filter body ~ <error warning critical>", types.QueryContext{})

	want := `filter (contains(body, "error") or contains(body, "warning") or contains(body, "critical"))`
	if result.TransformedQuery != want {
		t.Errorf("TransformedQuery = %q, want %q", result.TransformedQuery, want)
	}
	if len(result.Applied) != 1 {
		t.Fatalf("Applied = %d entries, want 1", len(result.Applied))
	}
	if result.Blocked != "" {
		t.Errorf("Blocked = %q, want empty", result.Blocked)
	}
}

func TestApply_SingleTermUnchanged(t *testing.T) {
	engine := NewEngine()
	query := "filter body ~ <error>"
	result := engine.Apply(query, windowedContext())

	if result.TransformedQuery != query {
		t.Errorf("TransformedQuery = %q, want original %q", result.TransformedQuery, query)
	}
	if len(result.Applied) != 0 {
		t.Errorf("Applied = %d entries, want 0", len(result.Applied))
	}
}

func TestApply_RedundantTimeFilterScenario(t *testing.T) {
	engine := NewEngine()
	result := engine.Apply(`filter timestamp > @"2 hours ago" | filter body ~ error`, windowedContext())

	want := "filter body ~ error"
	if result.TransformedQuery != want {
		t.Errorf("TransformedQuery = %q, want %q", result.TransformedQuery, want)
	}
}

func TestApply_QuotePathScenario(t *testing.T) {
	engine := NewEngine()
	query := "make_col n:string(resource_attributes.k8s.namespace.name)"
	result := engine.Apply(query, types.QueryContext{})

	want := `make_col n:string(resource_attributes."k8s.namespace.name")`
	if result.TransformedQuery != want {
		t.Errorf("TransformedQuery = %q, want %q", result.TransformedQuery, want)
	}

	again := engine.Apply(result.TransformedQuery, types.QueryContext{})
	if len(again.Applied) != 0 {
		t.Errorf("re-apply found %d fixes, want 0", len(again.Applied))
	}
}

func TestApply_CountIfScenario(t *testing.T) {
	engine := NewEngine()
	result := engine.Apply("statsby errors:count_if(status>=500), total:count()", types.QueryContext{})

	want := "make_col _cond_errors:if(status>=500, 1, 0) | statsby errors:sum(_cond_errors), total:count()"
	if result.TransformedQuery != want {
		t.Errorf("TransformedQuery = %q, want %q", result.TransformedQuery, want)
	}
}

func TestApply_MetricAlignScenario(t *testing.T) {
	engine := NewEngine()
	result := engine.Apply(`filter m("error_count_5m") > 0`, types.QueryContext{})

	want := `align 5m, _val_error_count_5m:max(m("error_count_5m")) | filter _val_error_count_5m > 0`
	if result.TransformedQuery != want {
		t.Errorf("TransformedQuery = %q, want %q", result.TransformedQuery, want)
	}

	again := engine.Apply(result.TransformedQuery, types.QueryContext{})
	if len(again.Applied) != 0 {
		t.Errorf("re-apply found %d fixes, want 0", len(again.Applied))
	}
}

func TestApply_ConfiguredAlignWindow(t *testing.T) {
	engine := NewEngine(WithAlignWindow("1m"))
	result := engine.Apply(`filter m("error_count_5m") > 0`, types.QueryContext{})

	want := `align 1m, _val_error_count_5m:max(m("error_count_5m")) | filter _val_error_count_5m > 0`
	if result.TransformedQuery != want {
		t.Errorf("TransformedQuery = %q, want %q", result.TransformedQuery, want)
	}
	if len(result.Applied) != 1 || !strings.Contains(result.Applied[0].Note, "1m window") {
		t.Errorf("Applied = %+v, want one fix noting the 1m window", result.Applied)
	}
}

func TestApply_BlockedLeavesQueryUntouched(t *testing.T) {
	engine := NewEngine()
	query := `filter body ~ <"two words" other> | sort -duration`
	result := engine.Apply(query, types.QueryContext{})

	if result.Blocked == "" {
		t.Fatal("Blocked = empty, want block reason")
	}
	if result.TransformedQuery != query {
		t.Errorf("TransformedQuery = %q, want original %q", result.TransformedQuery, query)
	}
	if len(result.Applied) != 0 {
		t.Errorf("Applied = %d entries on block, want 0", len(result.Applied))
	}
}

func TestApply_NoRuleFiresReturnsOriginalBytes(t *testing.T) {
	engine := NewEngine()
	// Odd spacing survives untouched because nothing rewrites.
	query := "filter  body ~ error   |   sort duration"
	result := engine.Apply(query, types.QueryContext{})

	if result.TransformedQuery != query {
		t.Errorf("TransformedQuery = %q, want byte-identical original", result.TransformedQuery)
	}
}

func TestApply_FeedbackInCatalogOrder(t *testing.T) {
	engine := NewEngine()
	query := `filter body ~ <a b> | filter timestamp > @"1 hour ago" | sort -duration`
	result := engine.Apply(query, windowedContext())

	wantRules := []string{multiTermRuleName, timeFilterRuleName, sortFlagRuleName}
	if len(result.Applied) != len(wantRules) {
		t.Fatalf("Applied = %d entries, want %d", len(result.Applied), len(wantRules))
	}
	for i, fix := range result.Applied {
		if fix.Rule != wantRules[i] {
			t.Errorf("Applied[%d].Rule = %q, want %q", i, fix.Rule, wantRules[i])
		}
	}
}

func TestApply_RulesCompose(t *testing.T) {
	// The multi-term rewrite emits a bare attribute path which the
	// quoting rule then picks up in the same pass.
	engine := NewEngine()
	result := engine.Apply("filter attributes.k8s.container.name ~ <api auth>", types.QueryContext{})

	want := `filter (contains(attributes."k8s.container.name", "api") or contains(attributes."k8s.container.name", "auth"))`
	if result.TransformedQuery != want {
		t.Errorf("TransformedQuery = %q, want %q", result.TransformedQuery, want)
	}
	if len(result.Applied) != 3 {
		t.Errorf("Applied = %d entries, want 3 (one expansion, two quotings)", len(result.Applied))
	}
}

func TestApply_EmptyQuery(t *testing.T) {
	engine := NewEngine()
	result := engine.Apply("", types.QueryContext{})

	if result.TransformedQuery != "" || len(result.Applied) != 0 || result.Blocked != "" {
		t.Errorf("Apply(\"\") = %+v, want untouched empty result", result)
	}
}

// antiPatternQueries is the generator corpus for property tests: queries
// exercising every rule, alone and combined.
var antiPatternQueries = []string{
	"filter body ~ <error warning critical>",
	"filter svc ~ <api-gw auth-svc>",
	`filter timestamp > @"2 hours ago" | filter body ~ error`,
	`filter body ~ error and timestamp > @"1 hour ago" | statsby c:count()`,
	"make_col n:string(resource_attributes.k8s.namespace.name)",
	"filter attributes.http.status_code >= 500 | sort -duration",
	"statsby errors:count_if(status>=500), total:count()",
	"make_col s:int64(status) | statsby errors:count_if(status>=500), warns:count_if(status>=400)",
	`filter m("error_count_5m") > 0`,
	`filter m("errors") > 0 and m("latency_p99") < 2 | sort -errors`,
	`filter attributes.k8s.pod.name ~ <api auth> | statsby n:count_if(status>=500) | sort -n`,
	"filter body ~ error | sort duration",
}

var correctedQueries = []string{
	`filter (contains(body, "error") or contains(body, "warning"))`,
	"filter body ~ <error>",
	`make_col n:string(resource_attributes."k8s.namespace.name")`,
	"sort desc(duration)",
	"make_col _cond_errors:if(status>=500, 1, 0) | statsby errors:sum(_cond_errors)",
	`align 5m, v:max(m("error_count_5m")) | filter v > 0`,
	"filter body ~ error | statsby c:count()",
}

func propertyContexts() []types.QueryContext {
	return []types.QueryContext{{}, windowedContext()}
}

// Property: applying the engine to its own output finds no new matches.
func TestApply_PropertyIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	engine := NewEngine()
	contexts := propertyContexts()

	properties.Property("engine output is a fixed point", prop.ForAll(
		func(qi, ci int) bool {
			query := antiPatternQueries[qi%len(antiPatternQueries)]
			qctx := contexts[ci%len(contexts)]

			first := engine.Apply(query, qctx)
			if first.Blocked != "" {
				return first.TransformedQuery == query
			}
			second := engine.Apply(first.TransformedQuery, qctx)
			return len(second.Applied) == 0 &&
				second.TransformedQuery == first.TransformedQuery
		},
		gen.IntRange(0, len(antiPatternQueries)-1),
		gen.IntRange(0, 1),
	))

	properties.TestingRun(t)
}

// Property: already-corrected queries never match any rule.
func TestApply_PropertyZeroFalsePositives(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	engine := NewEngine()
	contexts := propertyContexts()

	properties.Property("corrected corpus passes through untouched", prop.ForAll(
		func(qi, ci int) bool {
			query := correctedQueries[qi%len(correctedQueries)]
			result := engine.Apply(query, contexts[ci%len(contexts)])
			return len(result.Applied) == 0 && result.TransformedQuery == query
		},
		gen.IntRange(0, len(correctedQueries)-1),
		gen.IntRange(0, 1),
	))

	properties.TestingRun(t)
}

// Property: every rewrite leaves the pipeline pipe-well-formed.
func TestApply_PropertyWellFormed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	engine := NewEngine()
	contexts := propertyContexts()

	properties.Property("transformed queries stay pipe-well-formed", prop.ForAll(
		func(qi, ci int) bool {
			query := antiPatternQueries[qi%len(antiPatternQueries)]
			result := engine.Apply(query, contexts[ci%len(contexts)])
			transformed := result.TransformedQuery
			return Parse(transformed).WellFormed() &&
				!strings.HasPrefix(strings.TrimSpace(transformed), "|") &&
				!strings.HasSuffix(strings.TrimSpace(transformed), "|")
		},
		gen.IntRange(0, len(antiPatternQueries)-1),
		gen.IntRange(0, 1),
	))

	properties.TestingRun(t)
}
