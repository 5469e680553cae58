package scriptbind

import (
	"encoding/base64"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/robbyt/go-scriptbind/compiler"
	"github.com/robbyt/go-scriptbind/diagnostics"
	"github.com/robbyt/go-scriptbind/domain"
	"github.com/robbyt/go-scriptbind/engines/extism"
	"github.com/robbyt/go-scriptbind/engines/starlark"
	"github.com/robbyt/go-scriptbind/engines/types"
	"github.com/robbyt/go-scriptbind/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calcScript = `
def Add(a, b):
    return a + b

Calc = module("Calc", Add = Add)
`

func testDomain(t *testing.T) compiler.FunctionalOption {
	t.Helper()
	d, err := domain.New(t.Name())
	require.NoError(t, err)
	return compiler.WithDomain(d)
}

func TestNewStarlarkCompiler(t *testing.T) {
	t.Parallel()

	c, err := NewStarlarkCompiler(
		[]starlark.FunctionalOption{starlark.WithCacheDir(t.TempDir())},
		testDomain(t),
		compiler.WithFileCompile(),
	)
	require.NoError(t, err)
	assert.True(t, c.UsesFileCompile())

	add, err := compiler.Bind[func(int, int) int](c, calcScript, "Calc", "Add", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, add(2, 3))

	_, err = NewStarlarkCompiler([]starlark.FunctionalOption{starlark.WithCacheDir("")})
	require.Error(t, err)
}

func TestNewExtismCompiler(t *testing.T) {
	t.Parallel()

	c, err := NewExtismCompiler(
		[]extism.FunctionalOption{extism.WithCacheDir(t.TempDir())},
		testDomain(t),
	)
	require.NoError(t, err)

	_, err = c.CompileModule("not base64 !")
	require.ErrorIs(t, err, diagnostics.ErrModuleFailure)
	assert.NotEmpty(t, c.Diagnostics().Formatted)

	_, err = NewExtismCompiler([]extism.FunctionalOption{extism.WithEntryPoint("")})
	require.Error(t, err)
}

func TestNewCompiler(t *testing.T) {
	t.Parallel()

	cfg := EngineConfig{
		CacheDir:   t.TempDir(),
		LogHandler: slog.NewTextHandler(io.Discard, nil),
		Globals:    map[string]any{"offset": 10},
		EntryPoint: "greet",
		TypeName:   "Greeter",
	}

	t.Run("starlark", func(t *testing.T) {
		t.Parallel()
		c, err := NewCompiler(types.Starlark, cfg, testDomain(t))
		require.NoError(t, err)

		script := "def shift(x):\n    return x + offset\n\nM = module('M', shift = shift)\n"
		shift, err := compiler.Bind[func(int) int](c, script, "M", "", nil)
		require.NoError(t, err)
		assert.Equal(t, 11, shift(1))
	})

	t.Run("extism", func(t *testing.T) {
		t.Parallel()
		eng, err := NewEngine(types.Extism, cfg)
		require.NoError(t, err)
		assert.Equal(t, "greet", eng.InferMethodName(""))
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		_, err := NewCompiler(types.Type("risor"), cfg)
		require.ErrorIs(t, err, types.ErrUnknownType)
	})
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "calc.star")
	require.NoError(t, os.WriteFile(path, []byte(calcScript), 0o644))

	l, err := loader.NewFromDisk(path)
	require.NoError(t, err)

	script, err := LoadScript(l)
	require.NoError(t, err)
	assert.Equal(t, calcScript, script)

	_, err = LoadScript(nil)
	require.ErrorIs(t, err, loader.ErrLoaderNil)
}

func TestLoadPlugin(t *testing.T) {
	t.Parallel()

	wasm := []byte("\x00asm\x01\x00\x00\x00")
	encoded := base64.StdEncoding.EncodeToString(wasm)

	t.Run("binary module", func(t *testing.T) {
		t.Parallel()
		l, err := loader.NewFromBytes(wasm)
		require.NoError(t, err)
		got, err := LoadPlugin(l)
		require.NoError(t, err)
		assert.Equal(t, encoded, got)
	})

	t.Run("already base64", func(t *testing.T) {
		t.Parallel()
		l, err := loader.NewFromBytes([]byte(encoded + "\n"))
		require.NoError(t, err)
		got, err := LoadPlugin(l)
		require.NoError(t, err)
		assert.Equal(t, encoded, got)
	})
}
