// internal/opal/timefilter.go
package opal

import (
	"regexp"

	"github.com/sievelabs/opalfix/internal/types"
)

/*
 * Rule: redundant relative-time filter.
 *
 * When the caller already supplies an explicit time window, a filter
 * stage comparing a timestamp-like field against a relative-time literal
 * (@"2 hours ago", @"now") double-applies the window and frequently
 * contradicts it. The rewrite deletes the predicate; when it was the
 * stage's only predicate the whole stage goes, repairing pipe adjacency.
 *
 * Fires only when the query context carries a non-empty time window.
 * Multiple occurrences anywhere in the pipeline are removed
 * independently.
 */

const timeFilterRuleName = "redundant-time-filter"

// Timestamp-like fields recognized by the detector. Comparisons against
// any other field are left alone regardless of the literal.
const timeFieldPat = `(?:observed_timestamp|start_time|end_time|valid_from|valid_to|timestamp|time)`

// Relative-time literal: @"now" or @"<N> <unit> ago".
const relTimePat = `@"(?:now|\d+\s+[A-Za-z]+\s+ago)"`

// Word boundaries keep the field patterns from matching inside longer
// identifiers such as mytimestamp or last_time.
const timePredPat = `\b` + timeFieldPat + `\b\s*(?:<=|>=|!=|<|>|=)\s*` + relTimePat

var (
	// Whole stage is a single relative-time predicate: remove the stage.
	wholeTimeFilterRe = regexp.MustCompile(`^filter\s+` + timePredPat + `\s*$`)

	// Predicate conjoined with others: strip just the predicate and the
	// adjoining `and`.
	leadingTimePredRe  = regexp.MustCompile(timePredPat + `\s+and\s+`)
	trailingTimePredRe = regexp.MustCompile(`\s+and\s+` + timePredPat)
)

// Match kinds carried in Captures[0].
const (
	timeMatchStage    = "stage"
	timeMatchLeading  = "leading"
	timeMatchTrailing = "trailing"
)

type timeFilterRule struct{}

func (timeFilterRule) Name() string { return timeFilterRuleName }

func (timeFilterRule) Detect(p *Pipeline, qctx types.QueryContext) []Match {
	if !qctx.HasTimeWindow() {
		return nil
	}

	var matches []Match
	for i := 0; i < p.Len(); i++ {
		if p.Verb(i) != "filter" {
			continue
		}
		stage := p.Stage(i)
		switch {
		case wholeTimeFilterRe.MatchString(stage):
			if p.Len() == 1 {
				// Removing the only stage would leave nothing to
				// execute; an all-time-filter query stays as written.
				continue
			}
			matches = append(matches, Match{
				Stage:    i,
				Fragment: stage,
				Captures: []string{timeMatchStage},
			})
		case leadingTimePredRe.MatchString(stage):
			matches = append(matches, Match{
				Stage:    i,
				Fragment: leadingTimePredRe.FindString(stage),
				Captures: []string{timeMatchLeading},
			})
		case trailingTimePredRe.MatchString(stage):
			matches = append(matches, Match{
				Stage:    i,
				Fragment: trailingTimePredRe.FindString(stage),
				Captures: []string{timeMatchTrailing},
			})
		}
	}
	return matches
}

func (timeFilterRule) Rewrite(p *Pipeline, matches []Match) ([]types.AppliedFix, error) {
	groups := make([][]types.AppliedFix, len(matches))

	// Walk matches last-to-first so stage removals do not shift the
	// indices of matches still pending.
	for idx := len(matches) - 1; idx >= 0; idx-- {
		m := matches[idx]

		switch m.Captures[0] {
		case timeMatchStage:
			p.Remove(m.Stage)
			groups[idx] = []types.AppliedFix{timeFilterFix(m.Fragment, "")}
		default:
			// Strip conjoined time predicates one at a time until none
			// remain, recording each so every removed predicate gets its
			// own feedback entry. A stage like
			// `filter ts > @"1 hour ago" and ts < @"now"` collapses to a
			// bare predicate that the whole-stage form then removes.
			stage := p.Stage(m.Stage)
			var stripped []string
			for {
				if loc := leadingTimePredRe.FindStringIndex(stage); loc != nil {
					stripped = append(stripped, stage[loc[0]:loc[1]])
					stage = stage[:loc[0]] + stage[loc[1]:]
					continue
				}
				if loc := trailingTimePredRe.FindStringIndex(stage); loc != nil {
					stripped = append(stripped, stage[loc[0]:loc[1]])
					stage = stage[:loc[0]] + stage[loc[1]:]
					continue
				}
				break
			}

			fixed := stage
			if wholeTimeFilterRe.MatchString(stage) && p.Len() > 1 {
				p.Remove(m.Stage)
				stripped = append(stripped, stage)
				fixed = ""
			} else {
				p.SetStage(m.Stage, stage)
			}

			for _, frag := range stripped {
				groups[idx] = append(groups[idx], timeFilterFix(frag, fixed))
			}
		}
	}

	var fixes []types.AppliedFix
	for _, g := range groups {
		fixes = append(fixes, g...)
	}
	return fixes, nil
}

func timeFilterFix(original, fixed string) types.AppliedFix {
	return types.AppliedFix{
		Rule:      timeFilterRuleName,
		Original:  original,
		Fixed:     fixed,
		Rationale: "the request already carries an explicit time window, so this relative-time filter is redundant and can silently narrow or contradict the requested range; removed it",
	}
}
