package starlark

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robbyt/go-scriptbind/diagnostics"
	"github.com/robbyt/go-scriptbind/domain"
	"github.com/robbyt/go-scriptbind/engine"
	"github.com/robbyt/go-scriptbind/internal/helpers"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/resolve"
	"go.starlark.net/syntax"
)

const scriptExt = ".star"

// unit is the state of a single compile call.
type unit struct {
	script   string
	hash     string
	name     string
	filename string
	dom      *domain.Domain
	engine   *Engine
}

func (e *Engine) newUnit(script string, dom *domain.Domain) *unit {
	hash := helpers.SHA256(script)
	short := helpers.ShortHash(script, 8)
	return &unit{
		script:   script,
		hash:     hash,
		name:     fmt.Sprintf("script_%s_%d", short, dom.NextID()),
		filename: short + scriptExt,
		dom:      dom,
		engine:   e,
	}
}

func fileOptions() *syntax.FileOptions {
	return &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
	}
}

func (u *unit) parse() (*syntax.File, []diagnostics.Entry) {
	if strings.TrimSpace(u.script) == "" {
		return nil, []diagnostics.Entry{errorEntry(u.filename, "script is empty")}
	}
	f, err := fileOptions().Parse(u.filename, u.script, 0)
	if err != nil {
		return nil, errorEntries(u.filename, err)
	}
	return f, nil
}

func (u *unit) resolve(f *syntax.File) (*starlarkLib.Program, []diagnostics.Entry) {
	predeclared := u.engine.predeclared()
	prog, err := starlarkLib.FileProgram(f, predeclared.Has)
	if err != nil {
		return nil, errorEntries(u.filename, err)
	}
	return prog, nil
}

// finish runs the program top level, collects the declared types and
// registers the module. artifactPath is empty for memory compiles.
func (e *Engine) finish(u *unit, prog *starlarkLib.Program, order []declaration, artifactPath string) engine.Result {
	logger := e.logger.WithGroup("finish")

	thread := &starlarkLib.Thread{
		Name: u.name,
		Print: func(thread *starlarkLib.Thread, msg string) {
			logger.Info(msg, "starlark-thread", thread.Name)
		},
	}
	globals, err := prog.Init(thread, e.predeclared())
	if err != nil {
		return engine.NewFailedResult(errorEntries(u.filename, err)...)
	}
	globals.Freeze()

	types, entries := collectTypes(u.filename, order, globals, e.logger)
	mod := &Module{
		name:         u.name,
		types:        types,
		globals:      globals,
		artifactPath: artifactPath,
	}
	if err := u.dom.Register(mod); err != nil {
		entries = append(entries, errorEntry(u.filename, err.Error()))
		return engine.NewFailedResult(entries...)
	}

	logger.Debug("module compiled", "module", u.name, "types", len(types))
	return engine.Result{
		Module:    mod,
		Formatted: diagnostics.Format(entries),
		Entries:   entries,
	}
}

func errorEntry(file, msg string) diagnostics.Entry {
	return diagnostics.Entry{Severity: diagnostics.SeverityError, File: file, Message: msg}
}

func positionEntry(sev diagnostics.Severity, pos syntax.Position, fallback, msg string) diagnostics.Entry {
	file := fallback
	if pos.IsValid() && pos.Filename() != "" {
		file = pos.Filename()
	}
	return diagnostics.Entry{
		Severity: sev,
		File:     file,
		Line:     int(pos.Line),
		Column:   int(pos.Col),
		Message:  msg,
	}
}

// errorEntries converts a Starlark parse, resolve or evaluation error into
// positioned error entries.
func errorEntries(file string, err error) []diagnostics.Entry {
	var resolveErrs resolve.ErrorList
	if errors.As(err, &resolveErrs) {
		entries := make([]diagnostics.Entry, 0, len(resolveErrs))
		for _, re := range resolveErrs {
			entries = append(entries, positionEntry(diagnostics.SeverityError, re.Pos, file, re.Msg))
		}
		return entries
	}

	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		return []diagnostics.Entry{positionEntry(diagnostics.SeverityError, syntaxErr.Pos, file, syntaxErr.Msg)}
	}

	var evalErr *starlarkLib.EvalError
	if errors.As(err, &evalErr) {
		// Innermost frame with a source position; builtins have none.
		var pos syntax.Position
		for i := range len(evalErr.CallStack) {
			if frame := evalErr.CallStack.At(i); frame.Pos.IsValid() {
				pos = frame.Pos
				break
			}
		}
		return []diagnostics.Entry{positionEntry(diagnostics.SeverityError, pos, file, evalErr.Msg)}
	}

	return []diagnostics.Entry{errorEntry(file, err.Error())}
}
