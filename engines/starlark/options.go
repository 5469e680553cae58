package starlark

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/robbyt/go-scriptbind/engines/starlark/internal"
	"github.com/robbyt/go-scriptbind/internal/helpers"
	starlarkLib "go.starlark.net/starlark"
)

// FunctionalOption is a function that configures an Engine instance
type FunctionalOption func(*Engine) error

// WithGlobals makes host values available to every script under the given
// names. Values are converted to Starlark values when the option is applied.
func WithGlobals(globals map[string]any) FunctionalOption {
	return func(e *Engine) error {
		for name, v := range globals {
			sv, err := internal.ToValue(v)
			if err != nil {
				return fmt.Errorf("global %q: %w", name, err)
			}
			e.globals[name] = sv
		}
		return nil
	}
}

// WithCacheDir sets the directory file compiles write their artifacts under.
func WithCacheDir(dir string) FunctionalOption {
	return func(e *Engine) error {
		if dir == "" {
			return ErrCacheDirEmpty
		}
		e.cacheDir = dir
		return nil
	}
}

// WithLogHandler creates an option to set the log handler for the Starlark engine.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(e *Engine) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		e.logHandler = handler
		e.logger = nil
		return nil
	}
}

// WithLogger creates an option to set a specific logger for the Starlark engine.
func WithLogger(logger *slog.Logger) FunctionalOption {
	return func(e *Engine) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		e.logger = logger
		e.logHandler = nil
		return nil
	}
}

func (e *Engine) setupLogger() {
	if e.logger != nil {
		e.logHandler = e.logger.Handler()
	} else {
		e.logHandler, e.logger = helpers.SetupLogger(e.logHandler, "starlark", "Engine")
	}
}

// applyDefaults sets the default values for an engine
func (e *Engine) applyDefaults() {
	if e.cacheDir == "" {
		e.cacheDir = filepath.Join(os.TempDir(), "scriptbind")
	}
}

func (e *Engine) validate() error {
	if e.cacheDir == "" {
		return ErrCacheDirEmpty
	}
	return nil
}

// predeclared returns the names every script is resolved and run against.
func (e *Engine) predeclared() starlarkLib.StringDict {
	dict := internal.StarlarkModules()
	for k, v := range e.globals {
		dict[k] = v
	}
	return dict
}
