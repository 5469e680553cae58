package diagnostics

import (
	"fmt"
	"strings"
)

// Severity of a single diagnostic entry.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Entry is one raw diagnostic produced by a compile engine.
type Entry struct {
	Severity Severity `msgpack:"severity"`
	File     string   `msgpack:"file"`
	Line     int      `msgpack:"line"`
	Column   int      `msgpack:"column"`
	Message  string   `msgpack:"message"`
}

// String renders the entry as file:line:col: severity: message. Position
// parts that are unknown are left out.
func (e Entry) String() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(":")
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, "%d:", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&sb, "%d:", e.Column)
		}
	}
	if sb.Len() > 0 {
		sb.WriteString(" ")
	}
	fmt.Fprintf(&sb, "%s: %s", e.Severity, e.Message)
	return sb.String()
}

// Format renders entries one per line, in order.
func Format(entries []Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

// HasErrors reports whether any entry has error severity.
func HasErrors(entries []Entry) bool {
	for _, e := range entries {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}
