package compiler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/robbyt/go-scriptbind/compiler"
	"github.com/robbyt/go-scriptbind/diagnostics"
	"github.com/robbyt/go-scriptbind/domain"
	"github.com/robbyt/go-scriptbind/engines/starlark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calcScript = `
def Add(a, b):
    return a + b

def Sub(a, b):
    return a - b

Calc = module("Calc", Add = Add, Sub = Sub)
`

func newStarlarkCompiler(t *testing.T, opts ...compiler.FunctionalOption) *compiler.Compiler {
	t.Helper()
	handler := slog.NewTextHandler(io.Discard, nil)

	eng, err := starlark.New(starlark.WithLogHandler(handler), starlark.WithCacheDir(t.TempDir()))
	require.NoError(t, err)

	dom, err := domain.New(t.Name())
	require.NoError(t, err)

	opts = append([]compiler.FunctionalOption{compiler.WithDomain(dom), compiler.WithLogHandler(handler)}, opts...)
	c, err := compiler.New(eng, opts...)
	require.NoError(t, err)
	return c
}

func TestStarlarkPipeline(t *testing.T) {
	t.Parallel()

	for _, mode := range []string{"memory", "file"} {
		t.Run(mode, func(t *testing.T) {
			t.Parallel()
			c := newStarlarkCompiler(t)
			if mode == "file" {
				c.UseFileCompile()
			}

			typ, err := c.ResolveType(calcScript, "Calc")
			require.NoError(t, err)
			assert.Equal(t, "Calc", typ.Name())

			m, err := c.ResolveMethod(calcScript, "Calc", "Add")
			require.NoError(t, err)
			assert.Equal(t, "Add", m.Name())

			fn, err := c.BindCallable(calcScript, "Calc", "Add", reflect.TypeFor[func(int, int) int](), nil)
			require.NoError(t, err)
			add, ok := fn.Interface().(func(int, int) int)
			require.True(t, ok)
			assert.Equal(t, 5, add(2, 3))

			diag := c.Diagnostics()
			assert.Equal(t, diagnostics.None, diag.ErrorKind)
			assert.Equal(t, calcScript, diag.Source)
		})
	}
}

func TestStarlarkPipeline_TypedBind(t *testing.T) {
	t.Parallel()
	c := newStarlarkCompiler(t)

	sub, err := compiler.Bind[func(context.Context, int, int) (int, error)](c, calcScript, "Calc", "Sub", nil)
	require.NoError(t, err)

	got, err := sub(t.Context(), 10, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, got)
}

func TestStarlarkPipeline_InferredMethod(t *testing.T) {
	t.Parallel()
	c := newStarlarkCompiler(t)

	m, err := c.ResolveMethod(calcScript, "Calc", "")
	require.NoError(t, err)
	assert.Equal(t, "Add", m.Name())
}

func TestStarlarkPipeline_Failures(t *testing.T) {
	t.Parallel()

	t.Run("syntax error fails every stage", func(t *testing.T) {
		t.Parallel()
		c := newStarlarkCompiler(t)
		script := "def Add(a, b)\n    return a + b\n"

		mod, err := c.CompileModule(script)
		require.Error(t, err)
		assert.Nil(t, mod)
		assert.Equal(t, diagnostics.ModuleFailure, c.Diagnostics().ErrorKind)
		assert.NotEmpty(t, c.Diagnostics().Formatted)

		_, err = c.ResolveType(script, "Calc")
		assert.Equal(t, diagnostics.ModuleFailure, diagnostics.KindOf(err))
		_, err = c.ResolveMethod(script, "Calc", "Add")
		assert.Equal(t, diagnostics.ModuleFailure, diagnostics.KindOf(err))
		_, err = c.BindCallable(script, "Calc", "Add", reflect.TypeFor[func(int, int) int](), nil)
		assert.Equal(t, diagnostics.ModuleFailure, diagnostics.KindOf(err))
		assert.Equal(t, diagnostics.ModuleFailure, c.Diagnostics().ErrorKind)
	})

	t.Run("missing type", func(t *testing.T) {
		t.Parallel()
		c := newStarlarkCompiler(t)
		_, err := c.ResolveType(calcScript, "X")
		require.ErrorIs(t, err, diagnostics.ErrTypeFailure)
		assert.Contains(t, c.Diagnostics().Message, `"X"`)
	})

	t.Run("missing method", func(t *testing.T) {
		t.Parallel()
		c := newStarlarkCompiler(t)
		_, err := c.ResolveMethod(calcScript, "Calc", "Mul")
		require.ErrorIs(t, err, diagnostics.ErrMethodFailure)
		assert.Equal(t, diagnostics.MethodFailure, c.Diagnostics().ErrorKind)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		t.Parallel()
		c := newStarlarkCompiler(t)
		_, err := c.BindCallable(calcScript, "Calc", "Add", reflect.TypeFor[func(int) int](), nil)
		require.ErrorIs(t, err, diagnostics.ErrCallableFailure)
		require.ErrorIs(t, err, starlark.ErrArity)
		assert.Equal(t, diagnostics.CallableFailure, c.Diagnostics().ErrorKind)
	})

	t.Run("typed bind mismatch", func(t *testing.T) {
		t.Parallel()
		c := newStarlarkCompiler(t)
		_, err := compiler.Bind[func(chan int) int](c, calcScript, "Calc", "Add", nil)
		require.Error(t, err)

		var failure *diagnostics.Failure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, diagnostics.CallableFailure, failure.Kind)
	})

	t.Run("next compile clears the failure", func(t *testing.T) {
		t.Parallel()
		c := newStarlarkCompiler(t)
		_, err := c.ResolveType(calcScript, "X")
		require.Error(t, err)

		_, err = c.ResolveType(calcScript, "Calc")
		require.NoError(t, err)
		assert.Equal(t, diagnostics.None, c.Diagnostics().ErrorKind)
		assert.Empty(t, c.Diagnostics().Message)
	})
}

func TestStarlarkPipeline_DuplicateTypes(t *testing.T) {
	t.Parallel()
	c := newStarlarkCompiler(t)
	script := `
First = module("Calc", Which = lambda: "first")
Second = module("Calc", Which = lambda: "second")
`
	which, err := compiler.Bind[func() string](c, script, "Calc", "Which", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", which())
	assert.Contains(t, c.Diagnostics().Formatted, "warning")
}
