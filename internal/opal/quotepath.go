// internal/opal/quotepath.go
package opal

import (
	"regexp"

	"github.com/sievelabs/opalfix/internal/types"
)

/*
 * Rule: unquoted dotted attribute path.
 *
 * Attribute-bag fields like resource_attributes hold keys that are
 * themselves dotted names (k8s.namespace.name). Written bare, OPAL reads
 * each dot as map traversal and resolves nothing. The rewrite quotes the
 * dotted suffix after the bag root: resource_attributes.k8s.namespace.name
 * becomes resource_attributes."k8s.namespace.name".
 *
 * Purely lexical; applies in any stage type. Only suffixes whose first
 * segment is one of the known convention prefixes are touched, so
 * genuinely nested single-segment access stays as-is. Already-quoted
 * suffixes never match: the pattern requires a prefix letter directly
 * after the root's dot, and a quoted form has '"' there instead.
 */

const quotePathRuleName = "quote-attribute-path"

// Attribute-bag roots. Longest alternatives first; regexp alternation is
// leftmost-first.
const attrRootPat = `(resource_attributes|metric_attributes|span_attributes|log_attributes|attributes)`

// Dotted-name convention prefixes (OpenTelemetry semantic namespaces).
const attrPrefixPat = `(?:k8s|http|net|host|os|cloud|container|service|process|db|rpc|messaging|telemetry|faas)`

// dottedPathRe matches root.prefix.rest where the suffix has at least two
// segments. The leading group keeps the root anchored at a path head so
// foo.attributes.k8s.x is left alone.
var dottedPathRe = regexp.MustCompile(
	`(^|[^.\w])` + attrRootPat + `\.(` + attrPrefixPat + `(?:\.[A-Za-z_][A-Za-z0-9_]*)+)`,
)

type quotePathRule struct{}

func (quotePathRule) Name() string { return quotePathRuleName }

func (quotePathRule) Detect(p *Pipeline, _ types.QueryContext) []Match {
	var matches []Match
	for i := 0; i < p.Len(); i++ {
		for _, m := range dottedPathRe.FindAllStringSubmatch(p.Stage(i), -1) {
			// m[1] is the anchor character, not part of the path.
			matches = append(matches, Match{
				Stage:    i,
				Fragment: m[2] + "." + m[3],
				Captures: []string{m[2], m[3]},
			})
		}
	}
	return matches
}

func (quotePathRule) Rewrite(p *Pipeline, matches []Match) ([]types.AppliedFix, error) {
	// Rewrite whole stages at once; the anchor group distinguishes real
	// path heads from lookalike substrings, which a plain text replace
	// of the fragment could not.
	touched := make(map[int]bool)
	for _, m := range matches {
		if touched[m.Stage] {
			continue
		}
		touched[m.Stage] = true
		p.SetStage(m.Stage, dottedPathRe.ReplaceAllString(p.Stage(m.Stage), `$1$2."$3"`))
	}

	fixes := make([]types.AppliedFix, 0, len(matches))
	for _, m := range matches {
		root, suffix := m.Captures[0], m.Captures[1]
		repl := root + `."` + suffix + `"`

		fixes = append(fixes, types.AppliedFix{
			Rule:      quotePathRuleName,
			Original:  m.Fragment,
			Fixed:     repl,
			Rationale: "keys under " + root + " contain literal dots; without quotes OPAL treats each dot as nested traversal and the lookup resolves to null, so the dotted key is now quoted as a single name",
		})
	}
	return fixes, nil
}
