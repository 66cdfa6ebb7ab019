package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for opalfix operations.
var (
	// ErrEmptyQuery indicates a validation request carried no query text.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrMalformedPipeline indicates a query with empty stages or
	// leading/trailing pipe delimiters.
	ErrMalformedPipeline = errors.New("query pipeline is malformed")

	// ErrDatasetNotFound indicates a dataset ID with no store entry.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrMetricNotFound indicates a metric name with no store entry.
	ErrMetricNotFound = errors.New("metric not found")

	// ErrExecutionFailed indicates the platform rejected or failed the query.
	ErrExecutionFailed = errors.New("query execution failed")
)

// BlockError signals that a rule recognized an anti-pattern but could not
// safely infer the caller's intent. The engine surfaces it as a blocked
// result instead of guessing at a rewrite.
type BlockError struct {
	Rule     string // rule that refused to rewrite
	Fragment string // offending query fragment
	Reason   string // human-readable explanation
}

// Error implements the error interface.
func (e *BlockError) Error() string {
	return fmt.Sprintf("%s: %s (in %q)", e.Rule, e.Reason, e.Fragment)
}

// StructuredError is the platform-side execution error shape: a message plus
// an optional hint at the query fragment the platform objected to.
type StructuredError struct {
	Message           string `json:"message"`
	OffendingFragment string `json:"offending_fragment,omitempty"`
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.OffendingFragment != "" {
		return fmt.Sprintf("%s (near %q)", e.Message, e.OffendingFragment)
	}
	return e.Message
}

// Unwrap maps all platform errors onto ErrExecutionFailed for errors.Is.
func (e *StructuredError) Unwrap() error {
	return ErrExecutionFailed
}
