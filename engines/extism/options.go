package extism

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	extismSDK "github.com/extism/go-sdk"
	"github.com/robbyt/go-scriptbind/internal/helpers"
)

// Defaults applied by New.
const (
	DefaultEntryPoint = "run"
	DefaultTypeName   = "Plugin"
)

// FunctionalOption is a function that configures an Engine instance
type FunctionalOption func(*Engine) error

// WithEntryPoint sets the function name returned when no method is named.
func WithEntryPoint(entryPoint string) FunctionalOption {
	return func(e *Engine) error {
		if entryPoint == "" {
			return ErrEntryPointEmpty
		}
		e.entryPoint = entryPoint
		return nil
	}
}

// WithTypeName sets the name of the single type every plugin module exposes.
func WithTypeName(name string) FunctionalOption {
	return func(e *Engine) error {
		if name == "" {
			return ErrTypeNameEmpty
		}
		e.typeName = name
		return nil
	}
}

// WithWASIEnabled enables or disables WASI support
func WithWASIEnabled(enabled bool) FunctionalOption {
	return func(e *Engine) error {
		e.settings.EnableWASI = enabled
		return nil
	}
}

// WithHostFunctions adds host functions to every compiled plugin.
func WithHostFunctions(funcs ...extismSDK.HostFunction) FunctionalOption {
	return func(e *Engine) error {
		e.settings.HostFunctions = append(e.settings.HostFunctions, funcs...)
		return nil
	}
}

// WithCacheDir sets the directory of the wazero compilation cache used by
// file compiles.
func WithCacheDir(dir string) FunctionalOption {
	return func(e *Engine) error {
		if dir == "" {
			return ErrCacheDirEmpty
		}
		e.cacheDir = dir
		return nil
	}
}

// WithLogHandler creates an option to set the log handler for the Extism engine.
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

// WithLogger creates an option to set a specific logger for the Extism engine.
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
		e.logHandler, e.logger = helpers.SetupLogger(e.logHandler, "extism", "Engine")
	}
}

// applyDefaults sets the default values for an engine
func (e *Engine) applyDefaults() {
	if e.entryPoint == "" {
		e.entryPoint = DefaultEntryPoint
	}
	if e.typeName == "" {
		e.typeName = DefaultTypeName
	}
	if e.cacheDir == "" {
		e.cacheDir = filepath.Join(os.TempDir(), "scriptbind", "wasm")
	}
}

func (e *Engine) validate() error {
	if e.entryPoint == "" {
		return ErrEntryPointEmpty
	}
	if e.typeName == "" {
		return ErrTypeNameEmpty
	}
	return nil
}
