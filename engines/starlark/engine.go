// Package starlark compiles Starlark scripts into modules whose types are the
// struct and module values the script declares at top level.
package starlark

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-scriptbind/domain"
	"github.com/robbyt/go-scriptbind/engine"
	starlarkLib "go.starlark.net/starlark"
)

// Engine compiles Starlark source. It holds no per-compile state and is safe
// for concurrent use.
type Engine struct {
	globals  starlarkLib.StringDict
	cacheDir string

	logHandler slog.Handler
	logger     *slog.Logger
}

var _ engine.Engine = (*Engine)(nil)

// New creates a Starlark engine.
func New(opts ...FunctionalOption) (*Engine, error) {
	e := &Engine{globals: make(starlarkLib.StringDict)}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}

	e.applyDefaults()
	if err := e.validate(); err != nil {
		return nil, err
	}
	e.setupLogger()

	// Host globals are shared by every module and every thread.
	e.globals.Freeze()
	return e, nil
}

func (e *Engine) String() string {
	return fmt.Sprintf("starlark.Engine{CacheDir: %s, Globals: %d}", e.cacheDir, len(e.globals))
}

// CacheDir returns the root directory of file compile artifacts.
func (e *Engine) CacheDir() string {
	return e.cacheDir
}

// MemoryCompile parses, resolves and runs the script top level in memory.
func (e *Engine) MemoryCompile(script string, dom *domain.Domain) engine.Result {
	logger := e.logger.WithGroup("MemoryCompile")

	u := e.newUnit(script, dom)
	f, entries := u.parse()
	if f == nil {
		logger.Debug("parse failed", "module", u.name, "entries", len(entries))
		return engine.NewFailedResult(entries...)
	}
	prog, entries := u.resolve(f)
	if prog == nil {
		logger.Debug("resolve failed", "module", u.name, "entries", len(entries))
		return engine.NewFailedResult(entries...)
	}
	return e.finish(u, prog, declarations(f), "")
}

// FileCompile writes the compiled program to an artifact under the cache
// directory and loads the module from that artifact. An artifact already
// present for the same source is reused.
func (e *Engine) FileCompile(script string, dom *domain.Domain) engine.Result {
	logger := e.logger.WithGroup("FileCompile")

	u := e.newUnit(script, dom)
	path := e.artifactPath(dom, u.hash)

	env, prog, err := loadArtifact(path, u.hash)
	if err == nil {
		logger.Debug("reusing artifact", "path", path)
	} else {
		logger.Debug("building artifact", "path", path, "reason", err)

		f, entries := u.parse()
		if f == nil {
			return engine.NewFailedResult(entries...)
		}
		built, entries := u.resolve(f)
		if built == nil {
			return engine.NewFailedResult(entries...)
		}
		if err := writeArtifact(path, u, built, declarations(f)); err != nil {
			logger.Warn("artifact write failed", "path", path, "error", err)
			return engine.NewFailedResult(errorEntry(u.filename, err.Error()))
		}
		if env, prog, err = loadArtifact(path, u.hash); err != nil {
			logger.Warn("artifact read failed", "path", path, "error", err)
			return engine.NewFailedResult(errorEntry(u.filename, err.Error()))
		}
	}

	return e.finish(u, prog, env.Order, path)
}

// InferMethodName returns the first public top-level function of the script.
func (e *Engine) InferMethodName(script string) string {
	return inferMethodName(script)
}
