// Package engine defines the boundary between the compiler pipeline and a
// concrete script compile engine.
package engine

import (
	"github.com/robbyt/go-scriptbind/artifact"
	"github.com/robbyt/go-scriptbind/diagnostics"
	"github.com/robbyt/go-scriptbind/domain"
)

// Result is what a compile entry point returns. Module is nil when
// compilation failed; Formatted and Entries are always populated with
// whatever the engine reported, including warnings on success.
type Result struct {
	Module    artifact.Module
	Formatted string
	Entries   []diagnostics.Entry
}

// Failed reports whether the compile produced no module.
func (r Result) Failed() bool {
	return r.Module == nil
}

// Engine compiles script text into modules. Both entry points share the
// same contract and register successful modules into the given domain.
// Implementations must be safe for concurrent use.
type Engine interface {
	// MemoryCompile compiles the script without touching disk.
	MemoryCompile(script string, dom *domain.Domain) Result

	// FileCompile compiles the script through an on-disk artifact.
	FileCompile(script string, dom *domain.Domain) Result

	// InferMethodName guesses the default method name from raw script text.
	InferMethodName(script string) string
}

// NewFailedResult builds a Result for a compile that produced no module.
func NewFailedResult(entries ...diagnostics.Entry) Result {
	return Result{
		Formatted: diagnostics.Format(entries),
		Entries:   entries,
	}
}
