// Package types provides domain models shared across opalfix components.
//
// Zero-dependency design: types.go and errors.go use only the standard
// library so the transform engine can be embedded without pulling in the
// service stack. ID utilities in ids.go import uuid but are isolated for
// selective inclusion.
package types

import "time"

// TimeWindow is the explicit query time range supplied by the caller,
// orthogonal to anything the query text itself says about time.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether the window carries no bounds at all.
func (w TimeWindow) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// QueryContext carries read-only caller parameters that affect rule
// eligibility but are not part of the query text.
type QueryContext struct {
	TimeWindow *TimeWindow `json:"time_window,omitempty"`
	DatasetIDs []string    `json:"dataset_ids,omitempty"`
}

// HasTimeWindow reports whether the caller supplied an explicit, non-empty
// time window. Rules that remove redundant time predicates key off this.
func (c QueryContext) HasTimeWindow() bool {
	return c.TimeWindow != nil && !c.TimeWindow.IsZero()
}

// AppliedFix records one rewrite performed by the transform engine:
// which rule fired, the fragment it matched, the replacement, and the
// explanation surfaced to the caller.
type AppliedFix struct {
	Rule      string `json:"rule"`
	Original  string `json:"original"`
	Fixed     string `json:"fixed"`
	Rationale string `json:"rationale"`
	Note      string `json:"note,omitempty"`
}

// ValidationResult is the complete outcome of one transform-engine
// invocation. Invariant: if Blocked is non-empty, TransformedQuery equals
// OriginalQuery byte-for-byte and Applied is empty.
type ValidationResult struct {
	OriginalQuery    string       `json:"original_query"`
	TransformedQuery string       `json:"transformed_query"`
	Applied          []AppliedFix `json:"applied,omitempty"`
	Blocked          string       `json:"blocked,omitempty"`
}

// Changed reports whether any rule rewrote the query.
func (r ValidationResult) Changed() bool {
	return len(r.Applied) > 0 && r.Blocked == ""
}

// Row is a single result row returned by the platform for an executed query.
type Row map[string]any

// Dataset is the platform-side dataset metadata tracked by the
// categorization subsystem.
type Dataset struct {
	DatasetID DatasetID `json:"dataset_id" db:"dataset_id"`
	Name      string    `json:"name" db:"name"`
	Kind      string    `json:"kind" db:"kind"`
	Schema    string    `json:"schema,omitempty" db:"schema_json"`
	Category  string    `json:"category,omitempty" db:"category"`
	Purpose   string    `json:"purpose,omitempty" db:"purpose"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Categorized reports whether the offline job has labeled this dataset.
func (d Dataset) Categorized() bool {
	return d.Category != ""
}

// Metric is a platform metric name plus the categorization attached to it.
type Metric struct {
	Name      string    `json:"name" db:"name"`
	DatasetID DatasetID `json:"dataset_id" db:"dataset_id"`
	Unit      string    `json:"unit,omitempty" db:"unit"`
	Category  string    `json:"category,omitempty" db:"category"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
