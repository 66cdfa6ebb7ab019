// internal/opal/sortflag.go
package opal

import (
	"regexp"

	"github.com/sievelabs/opalfix/internal/types"
)

/*
 * Rule: shell-style descending sort.
 *
 * `sort -duration` is shell muscle memory; OPAL spells descending order
 * as `sort desc(duration)`. Ascending fields (no dash) are untouched.
 * Only sort stages are inspected, so arithmetic minus in other stages
 * never matches.
 */

const sortFlagRuleName = "descending-sort-flag"

// dashFieldRe matches a dash-prefixed field after the sort verb or a
// comma, covering multi-key sorts like `sort -a, b, -c`.
var dashFieldRe = regexp.MustCompile(`(^sort\s+|,\s*)-([A-Za-z_]\w*)`)

type sortFlagRule struct{}

func (sortFlagRule) Name() string { return sortFlagRuleName }

func (sortFlagRule) Detect(p *Pipeline, _ types.QueryContext) []Match {
	var matches []Match
	for i := 0; i < p.Len(); i++ {
		if p.Verb(i) != "sort" {
			continue
		}
		for _, m := range dashFieldRe.FindAllStringSubmatch(p.Stage(i), -1) {
			matches = append(matches, Match{
				Stage:    i,
				Fragment: "-" + m[2],
				Captures: []string{m[2]},
			})
		}
	}
	return matches
}

func (sortFlagRule) Rewrite(p *Pipeline, matches []Match) ([]types.AppliedFix, error) {
	touched := make(map[int]bool)
	for _, m := range matches {
		if touched[m.Stage] {
			continue
		}
		touched[m.Stage] = true
		p.SetStage(m.Stage, dashFieldRe.ReplaceAllString(p.Stage(m.Stage), `${1}desc($2)`))
	}

	fixes := make([]types.AppliedFix, 0, len(matches))
	for _, m := range matches {
		fixes = append(fixes, types.AppliedFix{
			Rule:      sortFlagRuleName,
			Original:  "sort " + m.Fragment,
			Fixed:     "sort desc(" + m.Captures[0] + ")",
			Rationale: "OPAL has no dash flag for sort direction; descending order is written desc(field)",
		})
	}
	return fixes, nil
}
