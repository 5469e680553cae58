// Package scriptbind wires the compile engines to the resolution pipeline.
//
// A host picks an engine, gets a *compiler.Compiler and walks a script from
// module to type to method to a typed Go func:
//
//	c, err := scriptbind.NewStarlarkCompiler(nil)
//	add, err := compiler.Bind[func(int, int) int](c, script, "Calc", "Add", nil)
package scriptbind

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-scriptbind/compiler"
	"github.com/robbyt/go-scriptbind/engine"
	"github.com/robbyt/go-scriptbind/engines/extism"
	"github.com/robbyt/go-scriptbind/engines/starlark"
	"github.com/robbyt/go-scriptbind/engines/types"
	"github.com/robbyt/go-scriptbind/loader"
)

// wasmMagic starts every binary WASM module.
var wasmMagic = []byte("\x00asm")

// EngineConfig holds the engine settings shared by NewCompiler callers.
// Zero values select the engine defaults.
type EngineConfig struct {
	CacheDir   string
	LogHandler slog.Handler

	// Starlark only.
	Globals map[string]any

	// Extism only.
	EntryPoint string
	TypeName   string
}

// NewStarlarkCompiler creates a pipeline backed by a Starlark engine.
func NewStarlarkCompiler(
	engineOpts []starlark.FunctionalOption,
	opts ...compiler.FunctionalOption,
) (*compiler.Compiler, error) {
	eng, err := starlark.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create starlark engine: %w", err)
	}
	return compiler.New(eng, opts...)
}

// NewExtismCompiler creates a pipeline backed by an Extism engine.
func NewExtismCompiler(
	engineOpts []extism.FunctionalOption,
	opts ...compiler.FunctionalOption,
) (*compiler.Compiler, error) {
	eng, err := extism.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create extism engine: %w", err)
	}
	return compiler.New(eng, opts...)
}

// NewEngine creates the engine named by engineType from cfg.
func NewEngine(engineType types.Type, cfg EngineConfig) (engine.Engine, error) {
	switch engineType {
	case types.Starlark:
		var opts []starlark.FunctionalOption
		if cfg.CacheDir != "" {
			opts = append(opts, starlark.WithCacheDir(cfg.CacheDir))
		}
		if cfg.LogHandler != nil {
			opts = append(opts, starlark.WithLogHandler(cfg.LogHandler))
		}
		if len(cfg.Globals) > 0 {
			opts = append(opts, starlark.WithGlobals(cfg.Globals))
		}
		eng, err := starlark.New(opts...)
		if err != nil {
			return nil, err
		}
		return eng, nil

	case types.Extism:
		var opts []extism.FunctionalOption
		if cfg.CacheDir != "" {
			opts = append(opts, extism.WithCacheDir(cfg.CacheDir))
		}
		if cfg.LogHandler != nil {
			opts = append(opts, extism.WithLogHandler(cfg.LogHandler))
		}
		if cfg.EntryPoint != "" {
			opts = append(opts, extism.WithEntryPoint(cfg.EntryPoint))
		}
		if cfg.TypeName != "" {
			opts = append(opts, extism.WithTypeName(cfg.TypeName))
		}
		eng, err := extism.New(opts...)
		if err != nil {
			return nil, err
		}
		return eng, nil

	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownType, engineType)
	}
}

// NewCompiler creates a pipeline for the engine named by engineType.
func NewCompiler(
	engineType types.Type,
	cfg EngineConfig,
	opts ...compiler.FunctionalOption,
) (*compiler.Compiler, error) {
	eng, err := NewEngine(engineType, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.LogHandler != nil {
		opts = append([]compiler.FunctionalOption{compiler.WithLogHandler(cfg.LogHandler)}, opts...)
	}
	return compiler.New(eng, opts...)
}

// LoadScript reads the full script text from a loader.
func LoadScript(l loader.Loader) (string, error) {
	content, err := loader.ReadAll(l)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// LoadPlugin reads a WASM plugin from a loader and returns it in the base64
// form the Extism engine compiles. Content that is not a binary module is
// assumed to be base64 already.
func LoadPlugin(l loader.Loader) (string, error) {
	content, err := loader.ReadAll(l)
	if err != nil {
		return "", err
	}
	if bytes.HasPrefix(content, wasmMagic) {
		return base64.StdEncoding.EncodeToString(content), nil
	}
	return string(bytes.TrimSpace(content)), nil
}
