package models

import "fmt"

// ConfigurationError reports invalid analysis parameters (weights that
// do not sum to 1.0, negative thresholds). Surfaced before any
// computation starts; never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Reason)
}

// InsufficientDataError reports a series too short for the requested
// computation (pct_change needs at least one prior day).
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d bars, need %d", e.Have, e.Need)
}

// MalformedRowError identifies an unparsable input row by its 1-based
// row number (header excluded). In strict mode it aborts the load.
type MalformedRowError struct {
	Row   int
	Cause error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row %d: %v", e.Row, e.Cause)
}

func (e *MalformedRowError) Unwrap() error { return e.Cause }

// RowIssue records a skipped row in lenient mode so exclusions are
// reported, not hidden.
type RowIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
