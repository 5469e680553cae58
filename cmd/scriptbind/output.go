package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/robbyt/go-scriptbind/diagnostics"
)

// errDiagnostics is returned after error diagnostics were already printed.
var errDiagnostics = errors.New("script has errors")

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	okColor      = color.New(color.FgGreen)
	nameColor    = color.New(color.Bold)
)

func severityColor(s diagnostics.Severity) *color.Color {
	switch s {
	case diagnostics.SeverityError:
		return errorColor
	case diagnostics.SeverityWarning:
		return warningColor
	default:
		return infoColor
	}
}

func printEntries(w io.Writer, entries []diagnostics.Entry) {
	for _, e := range entries {
		severityColor(e.Severity).Fprintln(w, e.String())
	}
}

// printFailure reports a pipeline failure with the engine output that led to it.
func printFailure(w io.Writer, rec diagnostics.Record) {
	printEntries(w, rec.Entries)
	errorColor.Fprintf(w, "%s: %s\n", rec.ErrorKind, rec.Message)
}

// formatResult renders a call result for the terminal.
func formatResult(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case []byte:
		return string(v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
