package models

import "strings"

// Severity is the ordinal urgency of a complaint: low < medium < high.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh}

func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// MaxSeverity returns the higher-ranked of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ParseSeverity accepts a bare label in any case, surrounded by whitespace
// or trailing punctuation.
func ParseSeverity(value string) (Severity, bool) {
	v := strings.ToLower(strings.Trim(strings.TrimSpace(value), ".!:;\"'`*"))
	switch Severity(v) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(v), true
	}
	return "", false
}
