// Package extism compiles base64 encoded WASM plugins with the Extism SDK.
// Every module exposes a single type whose methods are the plugin exports.
package extism

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robbyt/go-scriptbind/diagnostics"
	"github.com/robbyt/go-scriptbind/domain"
	"github.com/robbyt/go-scriptbind/engine"
	"github.com/robbyt/go-scriptbind/engines/extism/adapters"
	"github.com/robbyt/go-scriptbind/engines/extism/internal/compile"
	"github.com/robbyt/go-scriptbind/internal/helpers"
	"github.com/tetratelabs/wazero"
)

type compileFunc func(ctx context.Context, wasm []byte, settings *compile.Settings) (adapters.CompiledPlugin, error)

// Engine compiles WASM plugins. It is safe for concurrent use.
type Engine struct {
	entryPoint string
	typeName   string
	settings   *compile.Settings
	cacheDir   string
	compileFn  compileFunc

	cacheMu sync.Mutex
	cache   wazero.CompilationCache

	logHandler slog.Handler
	logger     *slog.Logger
}

var _ engine.Engine = (*Engine)(nil)

// New creates an Extism engine.
func New(opts ...FunctionalOption) (*Engine, error) {
	e := &Engine{
		settings:  compile.WithDefaultCompileSettings(),
		compileFn: compile.CompileBytes,
	}

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
	return e, nil
}

func (e *Engine) String() string {
	return fmt.Sprintf("extism.Engine{EntryPoint: %s, TypeName: %s}", e.entryPoint, e.typeName)
}

// MemoryCompile compiles the plugin with a plain wazero runtime.
func (e *Engine) MemoryCompile(script string, dom *domain.Domain) engine.Result {
	return e.build(script, dom, e.settings)
}

// FileCompile compiles the plugin through a wazero compilation cache stored
// under the cache directory, so the native code is reused across compiles and
// processes.
func (e *Engine) FileCompile(script string, dom *domain.Domain) engine.Result {
	cache, err := e.compilationCache()
	if err != nil {
		e.logger.Warn("compilation cache unavailable", "dir", e.cacheDir, "error", err)
		return engine.NewFailedResult(errorEntry(err.Error()))
	}
	return e.build(script, dom, e.settings.WithCompilationCache(cache))
}

// InferMethodName returns the configured entry point. WASM binaries carry no
// source to inspect.
func (e *Engine) InferMethodName(string) string {
	return e.entryPoint
}

// Close releases the compilation cache of file compiles. A later file
// compile opens the cache again.
func (e *Engine) Close(ctx context.Context) error {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if e.cache == nil {
		return nil
	}
	err := e.cache.Close(ctx)
	e.cache = nil
	return err
}

// compilationCache opens the on-disk cache on first use.
func (e *Engine) compilationCache() (wazero.CompilationCache, error) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if e.cache != nil {
		return e.cache, nil
	}
	cache, err := wazero.NewCompilationCacheWithDir(e.cacheDir)
	if err != nil {
		return nil, err
	}
	e.cache = cache
	return cache, nil
}

func (e *Engine) build(script string, dom *domain.Domain, settings *compile.Settings) engine.Result {
	logger := e.logger.WithGroup("build")
	ctx := context.Background()

	wasm, err := compile.DecodeBase64(script)
	if err != nil {
		return engine.NewFailedResult(errorEntry(err.Error()))
	}

	plugin, err := e.compileFn(ctx, wasm, settings)
	if err != nil {
		logger.Debug("compile failed", "error", err)
		return engine.NewFailedResult(errorEntry(err.Error()))
	}

	name := fmt.Sprintf("script_%s_%d", helpers.ShortHash(script, 8), dom.NextID())
	mod := newModule(name, e.typeName, plugin, e.logger)
	if err := dom.Register(mod); err != nil {
		if closeErr := plugin.Close(ctx); closeErr != nil {
			logger.Warn("failed to close plugin", "error", closeErr)
		}
		return engine.NewFailedResult(errorEntry(err.Error()))
	}

	logger.Debug("module compiled", "module", name, "wasmBytes", len(wasm))
	return engine.Result{Module: mod}
}

func errorEntry(msg string) diagnostics.Entry {
	return diagnostics.Entry{Severity: diagnostics.SeverityError, Message: msg}
}
