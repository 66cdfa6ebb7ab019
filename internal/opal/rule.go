// internal/opal/rule.go
package opal

import (
	"strings"

	"github.com/sievelabs/opalfix/internal/types"
)

/*
 * Rule catalog registry.
 *
 * Each rule is an independent detector/rewriter pair recognizing exactly
 * one anti-pattern that generative callers produce. The catalog is a
 * fixed, ordered slice built at startup; ordering matters because some
 * rules must normalize before later rules inspect (quoting of attribute
 * paths runs before any rule that reads field references).
 *
 * Rule contract:
 *   - Detect never fires on already-corrected input (zero false positives).
 *   - Rewrite is total on detected matches; anything a rewriter could not
 *     safely apply must not be detected in the first place. The single
 *     exception is the multi-term marker rule, which returns a
 *     types.BlockError when term tokenization is ambiguous.
 *   - A rule's own output never matches it again (idempotence).
 */

// Match is a located occurrence of an anti-pattern with enough captured
// detail to produce both the replacement and the explanation without
// re-deriving context.
type Match struct {
	Stage    int      // index into the pipeline
	Fragment string   // exact matched text within the stage
	Captures []string // rule-specific submatches
}

// Rule is one detector/rewriter pair from the catalog.
type Rule interface {
	// Name returns the stable rule label used in feedback entries.
	Name() string

	// Detect scans the current pipeline for occurrences of this rule's
	// anti-pattern. An empty result means the rule does not fire.
	Detect(p *Pipeline, qctx types.QueryContext) []Match

	// Rewrite applies every match to the pipeline in place and returns
	// one feedback entry per match, in match order.
	Rewrite(p *Pipeline, matches []Match) ([]types.AppliedFix, error)
}

// catalogWith returns the fixed rule catalog in application order. The
// slice is rebuilt per call; rules themselves are stateless values, with
// the align window the one piece of construction-time state.
func catalogWith(alignWindow string) []Rule {
	return []Rule{
		multiTermRule{},
		timeFilterRule{},
		quotePathRule{},
		sortFlagRule{},
		countIfRule{},
		metricAlignRule{window: alignWindow},
	}
}

// replaceOnce substitutes the first occurrence of frag in stage i.
// Safe for repeated identical fragments: each replacement produces text
// that no longer contains frag, so successive calls walk forward.
func replaceOnce(p *Pipeline, i int, frag, repl string) {
	p.SetStage(i, strings.Replace(p.Stage(i), frag, repl, 1))
}

// scanBalanced returns the index of the ')' matching the '(' at open,
// honoring double-quoted string literals. Returns -1 when unbalanced.
func scanBalanced(s string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
