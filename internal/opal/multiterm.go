// internal/opal/multiterm.go
package opal

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sievelabs/opalfix/internal/types"
)

/*
 * Rule: multi-term disjunction marker.
 *
 * Generative callers write `field ~ <error warning critical>` expecting
 * "match any of these terms". In OPAL the <...> marker requires every
 * term to match (conjunction), the opposite of the intent. The rewrite
 * expands the marker into a parenthesized OR of exact contains()
 * predicates, one per term, preserving order and case.
 *
 * Single-term markers (`field ~ <error>`) are valid OPAL and never match.
 * When the marker body itself contains a quote character, term
 * tokenization is ambiguous and the rule blocks rather than guesses.
 */

const multiTermRuleName = "multi-term-match"

// markerRe captures field and marker body. The body excludes angle
// brackets and pipes so a broken stage split never gets absorbed.
var markerRe = regexp.MustCompile(`([A-Za-z_][\w.]*)\s*~\s*<([^<>|]*)>`)

type multiTermRule struct{}

func (multiTermRule) Name() string { return multiTermRuleName }

func (multiTermRule) Detect(p *Pipeline, _ types.QueryContext) []Match {
	var matches []Match
	for i := 0; i < p.Len(); i++ {
		for _, m := range markerRe.FindAllStringSubmatch(p.Stage(i), -1) {
			terms := strings.Fields(m[2])
			if len(terms) < 2 {
				continue
			}
			matches = append(matches, Match{
				Stage:    i,
				Fragment: m[0],
				Captures: []string{m[1], m[2]},
			})
		}
	}
	return matches
}

func (multiTermRule) Rewrite(p *Pipeline, matches []Match) ([]types.AppliedFix, error) {
	// Validate every match before touching the pipeline so a block leaves
	// the query untouched.
	for _, m := range matches {
		if strings.Contains(m.Captures[1], `"`) {
			return nil, &types.BlockError{
				Rule:     multiTermRuleName,
				Fragment: m.Fragment,
				Reason:   "the <...> match list contains quoted text, so the intended term boundaries are ambiguous; rewrite the filter as explicit contains() predicates",
			}
		}
	}

	fixes := make([]types.AppliedFix, 0, len(matches))
	for _, m := range matches {
		field := m.Captures[0]
		terms := strings.Fields(m.Captures[1])

		preds := make([]string, len(terms))
		for i, t := range terms {
			preds[i] = fmt.Sprintf("contains(%s, %q)", field, t)
		}
		repl := "(" + strings.Join(preds, " or ") + ")"

		replaceOnce(p, m.Stage, m.Fragment, repl)
		fixes = append(fixes, types.AppliedFix{
			Rule:      multiTermRuleName,
			Original:  m.Fragment,
			Fixed:     repl,
			Rationale: "the <...> marker requires every listed term to match (AND semantics); expanded it to an OR of contains() predicates so rows matching any term are kept",
			Note:      "if you really meant all terms at once, join contains() predicates with `and` instead",
		})
	}
	return fixes, nil
}
