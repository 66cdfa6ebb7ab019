// internal/opal/countif.go
package opal

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sievelabs/opalfix/internal/types"
)

/*
 * Rule: nonexistent conditional-count aggregate.
 *
 * `errors:count_if(status >= 500)` inside an aggregation stage calls a
 * function OPAL does not have. The equivalent OPAL idiom is a boolean
 * flag column materialized to 0/1 in a make_col stage directly before
 * the aggregation, summed under the original result name:
 *
 *   make_col _cond_errors:if(status >= 500, 1, 0)
 *   | statsby errors:sum(_cond_errors), total:count()
 *
 * Each occurrence gets an independently named flag. The derivation
 * stage is created only when the stage directly before the aggregation
 * is not already a make_col; otherwise the flag expression is appended
 * to it, so repeated fixes never stack duplicate stages.
 */

const countIfRuleName = "conditional-count"

// countIfHeadRe locates `name:count_if(`; the condition is then scanned
// to the balanced closing paren so nested calls survive.
var countIfHeadRe = regexp.MustCompile(`([A-Za-z_]\w*)\s*:\s*count_if\s*\(`)

// Aggregation verbs whose bodies are inspected.
var aggregationVerbs = map[string]bool{
	"statsby":   true,
	"timechart": true,
}

type countIfRule struct{}

func (countIfRule) Name() string { return countIfRuleName }

func (countIfRule) Detect(p *Pipeline, _ types.QueryContext) []Match {
	var matches []Match
	for i := 0; i < p.Len(); i++ {
		if !aggregationVerbs[p.Verb(i)] {
			continue
		}
		stage := p.Stage(i)
		for _, loc := range countIfHeadRe.FindAllStringSubmatchIndex(stage, -1) {
			open := loc[1] - 1 // the '(' is the last byte of the head match
			end := scanBalanced(stage, open)
			if end < 0 {
				continue
			}
			matches = append(matches, Match{
				Stage:    i,
				Fragment: stage[loc[0] : end+1],
				Captures: []string{
					stage[loc[2]:loc[3]],                   // result name
					strings.TrimSpace(stage[open+1 : end]), // condition
				},
			})
		}
	}
	return matches
}

func (countIfRule) Rewrite(p *Pipeline, matches []Match) ([]types.AppliedFix, error) {
	byStage := make(map[int][]Match)
	var stageOrder []int
	for _, m := range matches {
		if _, ok := byStage[m.Stage]; !ok {
			stageOrder = append(stageOrder, m.Stage)
		}
		byStage[m.Stage] = append(byStage[m.Stage], m)
	}

	// Process aggregation stages back-to-front so make_col insertions do
	// not shift the indices of stages still pending.
	sort.Sort(sort.Reverse(sort.IntSlice(stageOrder)))

	used := make(map[string]bool)
	fixesByStage := make(map[int][]types.AppliedFix)

	for _, i := range stageOrder {
		var flagExprs []string
		for _, m := range byStage[i] {
			name, cond := m.Captures[0], m.Captures[1]
			flag := uniqueFlagName(p, "_cond_"+name, used)
			repl := name + ":sum(" + flag + ")"
			flagExpr := flag + ":if(" + cond + ", 1, 0)"

			replaceOnce(p, i, m.Fragment, repl)
			flagExprs = append(flagExprs, flagExpr)
			fixesByStage[i] = append(fixesByStage[i], types.AppliedFix{
				Rule:      countIfRuleName,
				Original:  m.Fragment,
				Fixed:     repl,
				Rationale: "count_if() does not exist in OPAL; the conditional count is computed by materializing the condition as a 0/1 flag column and summing it",
				Note:      "added `" + flagExpr + "` to a make_col stage before the aggregation",
			})
		}

		if i > 0 && p.Verb(i-1) == "make_col" {
			p.SetStage(i-1, p.Stage(i-1)+", "+strings.Join(flagExprs, ", "))
		} else {
			p.Insert(i, "make_col "+strings.Join(flagExprs, ", "))
		}
	}

	// Reassemble feedback in original match order.
	sort.Sort(sort.IntSlice(stageOrder))
	var fixes []types.AppliedFix
	for _, i := range stageOrder {
		fixes = append(fixes, fixesByStage[i]...)
	}
	return fixes, nil
}

// uniqueFlagName returns base, or base_2, base_3, ... when the name is
// already taken by the query text or an earlier injected flag.
func uniqueFlagName(p *Pipeline, base string, used map[string]bool) string {
	name := base
	for n := 2; used[name] || pipelineContains(p, name); n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	used[name] = true
	return name
}

func pipelineContains(p *Pipeline, needle string) bool {
	for i := 0; i < p.Len(); i++ {
		if strings.Contains(p.Stage(i), needle) {
			return true
		}
	}
	return false
}
