package core

import "strings"

// Severity grades a data-quality anomaly. Lower values are more serious.
type Severity int

const (
	// SeverityError marks data that is internally inconsistent.
	SeverityError Severity = iota
	// SeverityWarning marks data that is suspicious or incomplete.
	SeverityWarning
	// SeverityInfo is informational only.
	SeverityInfo
)

var severityNames = [...]string{
	SeverityError:   "error",
	SeverityWarning: "warning",
	SeverityInfo:    "info",
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized names
// decode as SeverityWarning.
func (s *Severity) UnmarshalText(b []byte) error {
	*s, _ = ParseSeverity(string(b))
	return nil
}

// ParseSeverity looks up a severity by name, ignoring case. Unknown names
// yield SeverityWarning and false.
func ParseSeverity(name string) (Severity, bool) {
	for i, n := range severityNames {
		if strings.EqualFold(n, name) {
			return Severity(i), true
		}
	}
	return SeverityWarning, false
}
