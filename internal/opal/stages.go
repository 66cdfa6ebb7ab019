// internal/opal/stages.go
package opal

import "strings"

/*
 * Stage-sequence representation of an OPAL query.
 *
 * An OPAL query is an ordered sequence of pipe-delimited stages
 * (filter, make_col, statsby, sort, align, ...). Every rule in the
 * catalog operates on this shared representation rather than re-deriving
 * pipe boundaries itself, so pipe well-formedness can be checked in one
 * place and unit-tested per rule in isolation.
 *
 * Splitting is quote-aware: a '|' inside a double-quoted string literal
 * is payload, not a stage boundary. Backslash escapes inside literals
 * are honored.
 *
 * Parse/Render is not a round-trip on whitespace. The engine only calls
 * Render after at least one rule rewrote the pipeline; untouched queries
 * are returned byte-for-byte by the engine itself.
 */

// Pipeline is the parsed stage sequence of an OPAL query.
type Pipeline struct {
	stages []string
}

// Parse splits a query into trimmed pipe-delimited stages.
// Empty segments (doubled or dangling pipes) are dropped.
func Parse(query string) *Pipeline {
	var stages []string
	for _, raw := range splitPipes(query) {
		s := strings.TrimSpace(raw)
		if s != "" {
			stages = append(stages, s)
		}
	}
	return &Pipeline{stages: stages}
}

// splitPipes splits on '|' outside double-quoted string literals.
func splitPipes(query string) []string {
	var parts []string
	var sb strings.Builder
	inString := false
	escaped := false

	for _, r := range query {
		switch {
		case escaped:
			escaped = false
			sb.WriteRune(r)
		case r == '\\' && inString:
			escaped = true
			sb.WriteRune(r)
		case r == '"':
			inString = !inString
			sb.WriteRune(r)
		case r == '|' && !inString:
			parts = append(parts, sb.String())
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	parts = append(parts, sb.String())
	return parts
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Stage returns the stage at index i.
func (p *Pipeline) Stage(i int) string {
	return p.stages[i]
}

// Stages returns a copy of the stage slice.
func (p *Pipeline) Stages() []string {
	out := make([]string, len(p.stages))
	copy(out, p.stages)
	return out
}

// Verb returns the leading word of stage i, lowercased. Empty if the
// index is out of range.
func (p *Pipeline) Verb(i int) string {
	if i < 0 || i >= len(p.stages) {
		return ""
	}
	fields := strings.Fields(p.stages[i])
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// SetStage replaces the stage at index i.
func (p *Pipeline) SetStage(i int, s string) {
	p.stages[i] = strings.TrimSpace(s)
}

// Insert places a new stage at index i, shifting later stages right.
func (p *Pipeline) Insert(i int, s string) {
	s = strings.TrimSpace(s)
	p.stages = append(p.stages, "")
	copy(p.stages[i+1:], p.stages[i:])
	p.stages[i] = s
}

// Remove deletes the stage at index i, shifting later stages left.
func (p *Pipeline) Remove(i int) {
	p.stages = append(p.stages[:i], p.stages[i+1:]...)
}

// Render joins the stages back into query text.
func (p *Pipeline) Render() string {
	return strings.Join(p.stages, " | ")
}

// WellFormed reports whether the pipeline satisfies the rewrite
// invariant: at least one stage and no empty stage.
func (p *Pipeline) WellFormed() bool {
	if len(p.stages) == 0 {
		return false
	}
	for _, s := range p.stages {
		if strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}
