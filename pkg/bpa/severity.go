package bpa

import "strings"

// =============================================================================
// Severity
// =============================================================================

// Severity is the ordinal classification a rule assigns to a violation.
// The numeric values follow the best-practice rules wire encoding: rule
// collections and analyzer output carry severities as the integers 1-3.
type Severity int

// Severity levels carried by violation records.
const (
	// SeverityInfo is informational feedback.
	SeverityInfo Severity = 1
	// SeverityWarning is a potential issue that should be reviewed.
	SeverityWarning Severity = 2
	// SeverityError is a critical issue that should be fixed.
	SeverityError Severity = 3
)

// Known reports whether s is one of the three defined levels. Violations
// with unknown severities are excluded from tallies rather than bucketed.
func (s Severity) Known() bool {
	return s >= SeverityInfo && s <= SeverityError
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity value.
// Returns the severity and true if valid, or SeverityWarning and false if not.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(s) {
	case "info":
		return SeverityInfo, true
	case "warning":
		return SeverityWarning, true
	case "error":
		return SeverityError, true
	default:
		return SeverityWarning, false
	}
}
