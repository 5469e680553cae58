package diagnostics

import "slices"

// Record holds the diagnostic state of the latest pipeline run. It is a
// snapshot for callers; pipeline stages report failure through their returned
// error and keep the record in sync.
type Record struct {
	ErrorKind Kind
	Message   string
	// Source is the script text of the latest compile attempt.
	Source string
	// Formatted is the engine rendering of Entries.
	Formatted string
	// Entries are the raw diagnostics of the latest compile.
	Entries []Entry
}

// Begin starts a new run for source, clearing the previous failure.
func (r *Record) Begin(source string) {
	r.Source = source
	r.ErrorKind = None
	r.Message = ""
}

// SetCompileOutput replaces the compile diagnostics wholesale.
func (r *Record) SetCompileOutput(formatted string, entries []Entry) {
	r.Formatted = formatted
	r.Entries = slices.Clone(entries)
}

// Fail records a failure and returns the matching Failure error.
func (r *Record) Fail(kind Kind, message string, cause error) *Failure {
	r.ErrorKind = kind
	r.Message = message
	return NewFailure(kind, message, cause)
}

// HasError reports whether the latest run failed.
func (r *Record) HasError() bool {
	return r.ErrorKind != None
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() Record {
	c := *r
	c.Entries = slices.Clone(r.Entries)
	return c
}
