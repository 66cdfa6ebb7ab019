// internal/opal/metricalign.go
package opal

import (
	"regexp"
	"strings"

	"github.com/sievelabs/opalfix/internal/types"
)

/*
 * Rule: metric accessor outside its required align stage.
 *
 * The metric-value accessors m("name") and m_tdigest("name") are only
 * meaningful inside an align stage, which bounds each metric to an
 * aggregation window. Used bare, the platform rejects the query. The
 * rewrite synthesizes a single align stage at the front of the pipeline
 * evaluating every referenced metric under the default window, binds
 * each to a generated field, and rewrites the usage sites to reference
 * those fields.
 *
 * The aggregation inside the synthesized stage is a heuristic read off
 * the comparison around the accessor: an upper-bound comparison
 * (m(...) > c, or c < m(...)) selects max, a lower bound selects min,
 * anything else averages. This is an inference from operator direction,
 * not a correctness guarantee for non-monotonic metrics; the feedback
 * note tells the caller which aggregate was picked so they can override.
 *
 * A query that already has an align stage upstream of the usage is left
 * alone, and accessors inside any align stage never match, so the
 * rule's own output is invisible to it.
 */

const metricAlignRuleName = "metric-align"

// DefaultAlignWindow is the aggregation window used in synthesized
// align stages.
const DefaultAlignWindow = "5m"

// accessorRe matches m("name") and m_tdigest("name").
var accessorRe = regexp.MustCompile(`\bm(_tdigest)?\s*\(\s*"([^"]+)"\s*\)`)

type metricAlignRule struct {
	// window overrides DefaultAlignWindow when set; the zero value keeps
	// the default so the rule stays usable as a bare literal.
	window string
}

func (r metricAlignRule) alignWindow() string {
	if r.window == "" {
		return DefaultAlignWindow
	}
	return r.window
}

func (metricAlignRule) Name() string { return metricAlignRuleName }

func (metricAlignRule) Detect(p *Pipeline, _ types.QueryContext) []Match {
	var matches []Match
	alignSeen := false
	for i := 0; i < p.Len(); i++ {
		if p.Verb(i) == "align" {
			alignSeen = true
			continue
		}
		if alignSeen {
			// A wrapping stage already exists upstream; wrapping again
			// would double-aggregate.
			continue
		}
		stage := p.Stage(i)
		for _, loc := range accessorRe.FindAllStringSubmatchIndex(stage, -1) {
			frag := stage[loc[0]:loc[1]]
			variant := ""
			if loc[2] >= 0 {
				variant = stage[loc[2]:loc[3]]
			}
			metric := stage[loc[4]:loc[5]]
			agg := inferAggregate(stage, loc[0], loc[1], variant)
			matches = append(matches, Match{
				Stage:    i,
				Fragment: frag,
				Captures: []string{variant, metric, agg},
			})
		}
	}
	return matches
}

// inferAggregate picks the align aggregate from the comparison operator
// adjacent to the accessor at stage[start:end].
func inferAggregate(stage string, start, end int, variant string) string {
	if variant == "_tdigest" {
		return "tdigest_combine"
	}

	after := strings.TrimLeft(stage[end:], " \t")
	switch {
	case strings.HasPrefix(after, ">"):
		return "max"
	case strings.HasPrefix(after, "<"):
		return "min"
	}

	before := strings.TrimRight(stage[:start], " \t")
	switch {
	case strings.HasSuffix(before, "<="), strings.HasSuffix(before, "<"):
		return "max" // c < m(...) reads the same as m(...) > c
	case strings.HasSuffix(before, ">="), strings.HasSuffix(before, ">"):
		return "min"
	}
	return "avg"
}

func (r metricAlignRule) Rewrite(p *Pipeline, matches []Match) ([]types.AppliedFix, error) {
	// One binding per distinct accessor, in first-occurrence order; the
	// first occurrence's comparison decides the aggregate.
	type binding struct {
		variant string
		metric  string
		agg     string
		field   string
	}
	bindings := make(map[string]*binding)
	var order []string
	used := make(map[string]bool)

	for _, m := range matches {
		key := m.Captures[0] + "\x00" + m.Captures[1]
		if _, ok := bindings[key]; ok {
			continue
		}
		b := &binding{
			variant: m.Captures[0],
			metric:  m.Captures[1],
			agg:     m.Captures[2],
			field:   uniqueFlagName(p, "_val_"+sanitizeIdent(m.Captures[1]), used),
		}
		bindings[key] = b
		order = append(order, key)
	}

	// Rewrite usage sites first; the align insertion below shifts every
	// stage index by one.
	fixes := make([]types.AppliedFix, 0, len(matches))
	for _, m := range matches {
		b := bindings[m.Captures[0]+"\x00"+m.Captures[1]]
		replaceOnce(p, m.Stage, m.Fragment, b.field)
		fixes = append(fixes, types.AppliedFix{
			Rule:      metricAlignRuleName,
			Original:  m.Fragment,
			Fixed:     b.field,
			Rationale: "metric accessors must be evaluated inside an align stage that bounds them to an aggregation window; the accessor now runs in a synthesized align stage and this site references its result",
			Note:      "aggregated with " + b.agg + "() over a " + r.alignWindow() + " window, chosen from the comparison around the accessor; adjust the align stage if a different aggregate fits your metric",
		})
	}

	exprs := make([]string, 0, len(order))
	for _, key := range order {
		b := bindings[key]
		exprs = append(exprs, b.field+":"+b.agg+`(m`+b.variant+`("`+b.metric+`"))`)
	}
	p.Insert(0, "align "+r.alignWindow()+", "+strings.Join(exprs, ", "))

	return fixes, nil
}

var nonIdentRe = regexp.MustCompile(`[^A-Za-z0-9_]`)

func sanitizeIdent(s string) string {
	return nonIdentRe.ReplaceAllString(s, "_")
}
