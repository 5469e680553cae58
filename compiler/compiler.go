// Package compiler implements the staged resolution pipeline: a script is
// compiled into a module, a named type is resolved from the module, a named
// method from the type, and finally the method is bound to a typed callable.
//
// Every stage returns a *diagnostics.Failure on failure and mirrors it into
// the compiler's diagnostics record, which always describes the latest run.
//
// A Compiler is not safe for concurrent use: the record and the compile mode
// are shared state. Use one Compiler per goroutine, or per logical
// compilation unit used sequentially. The bound domain may be shared freely.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-scriptbind/artifact"
	"github.com/robbyt/go-scriptbind/diagnostics"
	"github.com/robbyt/go-scriptbind/domain"
	"github.com/robbyt/go-scriptbind/engine"
	"github.com/robbyt/go-scriptbind/internal/helpers"
)

// Compiler runs the resolution pipeline against one engine and one domain.
type Compiler struct {
	engine         engine.Engine
	domain         *domain.Domain
	useFileCompile bool
	record         diagnostics.Record

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a Compiler for eng. Options are applied in order; the domain
// defaults to domain.Default() and the mode to memory compilation.
func New(eng engine.Engine, opts ...FunctionalOption) (*Compiler, error) {
	c := &Compiler{engine: eng}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("error applying compiler option: %w", err)
		}
	}

	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid compiler configuration: %w", err)
	}
	c.setupLogger()

	return c, nil
}

func (c *Compiler) setupLogger() {
	if c.logger != nil {
		c.logHandler = c.logger.Handler()
		return
	}
	c.logHandler, c.logger = helpers.SetupLogger(c.logHandler, "compiler", "Compiler")
}

func (c *Compiler) String() string {
	mode := "memory"
	if c.useFileCompile {
		mode = "file"
	}
	return fmt.Sprintf("compiler.Compiler{Domain: %s, Mode: %s}", c.domain.Name(), mode)
}

// UseFileCompile switches to file-backed compilation.
func (c *Compiler) UseFileCompile() *Compiler {
	c.useFileCompile = true
	return c
}

// UseMemoryCompile switches to memory-resident compilation.
func (c *Compiler) UseMemoryCompile() *Compiler {
	c.useFileCompile = false
	return c
}

// UsesFileCompile reports whether the next compile is file-backed.
func (c *Compiler) UsesFileCompile() bool {
	return c.useFileCompile
}

// Domain returns the bound compilation domain.
func (c *Compiler) Domain() *domain.Domain {
	return c.domain
}

// Diagnostics returns a snapshot of the record left by the latest call.
func (c *Compiler) Diagnostics() diagnostics.Record {
	return c.record.Clone()
}

// CompileModule compiles script with the current strategy. The engine's
// diagnostics are stored in the record even when compilation succeeds.
func (c *Compiler) CompileModule(script string) (artifact.Module, error) {
	logger := c.logger.WithGroup("CompileModule")
	c.record.Begin(script)

	var res engine.Result
	if c.useFileCompile {
		logger.Debug("compiling", "mode", "file", "domain", c.domain.Name())
		res = c.engine.FileCompile(script, c.domain)
	} else {
		logger.Debug("compiling", "mode", "memory", "domain", c.domain.Name())
		res = c.engine.MemoryCompile(script, c.domain)
	}
	c.record.SetCompileOutput(res.Formatted, res.Entries)

	if res.Failed() {
		logger.Warn(msgModuleFailed, "entries", len(res.Entries))
		return nil, c.record.Fail(diagnostics.ModuleFailure, msgModuleFailed, nil)
	}

	logger.Debug("module compiled", "module", res.Module.Name())
	return res.Module, nil
}

// ResolveType compiles script and returns the first declared type named
// typeName. Duplicate type names resolve to the earliest declaration.
func (c *Compiler) ResolveType(script, typeName string) (artifact.Type, error) {
	mod, err := c.CompileModule(script)
	if err != nil {
		return nil, err
	}

	t, ok := artifact.FindType(mod, typeName)
	if !ok {
		msg := fmt.Sprintf("type %q not found in module %q", typeName, mod.Name())
		c.logger.WithGroup("ResolveType").Warn(msg)
		return nil, c.record.Fail(diagnostics.TypeFailure, msg, nil)
	}
	return t, nil
}

// ResolveMethod resolves typeName and looks up methodName on it. An empty
// methodName is inferred from the script text by the engine.
func (c *Compiler) ResolveMethod(script, typeName, methodName string) (artifact.Method, error) {
	t, err := c.ResolveType(script, typeName)
	if err != nil {
		return nil, err
	}

	logger := c.logger.WithGroup("ResolveMethod")
	if methodName == "" {
		methodName = c.engine.InferMethodName(script)
		logger.Debug("inferred method name", "method", methodName)
	}

	m, ok := t.Method(methodName)
	if !ok {
		msg := fmt.Sprintf("method %q not found on type %q", methodName, typeName)
		logger.Warn(msg)
		return nil, c.record.Fail(diagnostics.MethodFailure, msg, nil)
	}
	return m, nil
}
