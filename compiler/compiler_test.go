package compiler

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/robbyt/go-scriptbind/artifact"
	"github.com/robbyt/go-scriptbind/diagnostics"
	"github.com/robbyt/go-scriptbind/domain"
	"github.com/robbyt/go-scriptbind/engine"
	"github.com/robbyt/go-scriptbind/engines/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testScript = "def Add(a, b):\n    return a + b\n"

func newTestDomain(t *testing.T) *domain.Domain {
	t.Helper()
	d, err := domain.New(t.Name())
	require.NoError(t, err)
	return d
}

func newTestCompiler(t *testing.T, eng engine.Engine, opts ...FunctionalOption) *Compiler {
	t.Helper()
	opts = append(
		[]FunctionalOption{
			WithDomain(newTestDomain(t)),
			WithLogHandler(slog.NewTextHandler(io.Discard, nil)),
		},
		opts...,
	)
	c, err := New(eng, opts...)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

// calcModule builds a mock module with type Calc and method Add.
func calcModule() (*mocks.Module, *mocks.Type, *mocks.Method) {
	method := mocks.NewMethod("Calc", "Add")
	typ := mocks.NewType("Calc")
	typ.On("Method", "Add").Return(method, true).Maybe()
	typ.On("Method", mock.Anything).Return(nil, false).Maybe()
	return mocks.NewModule("script_test_1", typ), typ, method
}

func successResult(mod artifact.Module) engine.Result {
	return engine.Result{
		Module:    mod,
		Formatted: "warning: unused",
		Entries:   []diagnostics.Entry{{Severity: diagnostics.SeverityWarning, Message: "unused"}},
	}
}

func failedResult() engine.Result {
	return engine.NewFailedResult(diagnostics.Entry{
		Severity: diagnostics.SeverityError,
		Line:     1,
		Column:   5,
		Message:  "got newline, want ':'",
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		c, err := New(new(mocks.Engine))
		require.NoError(t, err)
		assert.Same(t, domain.Default(), c.Domain())
		assert.False(t, c.UsesFileCompile())
		assert.Equal(t, "compiler.Compiler{Domain: default, Mode: memory}", c.String())
	})

	t.Run("explicit domain and file mode", func(t *testing.T) {
		d := newTestDomain(t)
		c, err := New(new(mocks.Engine), WithDomain(d), WithFileCompile())
		require.NoError(t, err)
		assert.Same(t, d, c.Domain())
		assert.True(t, c.UsesFileCompile())
	})

	t.Run("with logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", testScript, mock.Anything).Return(failedResult())

		c, err := New(eng, WithLogger(logger))
		require.NoError(t, err)
		_, err = c.CompileModule(testScript)
		require.Error(t, err)
		assert.Contains(t, buf.String(), msgModuleFailed)
	})

	errorCases := []struct {
		name string
		eng  engine.Engine
		opts []FunctionalOption
	}{
		{name: "nil engine", eng: nil},
		{name: "nil domain", eng: new(mocks.Engine), opts: []FunctionalOption{WithDomain(nil)}},
		{name: "nil handler", eng: new(mocks.Engine), opts: []FunctionalOption{WithLogHandler(nil)}},
		{name: "nil logger", eng: new(mocks.Engine), opts: []FunctionalOption{WithLogger(nil)}},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.eng, tc.opts...)
			require.Error(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestCompiler_CompileStrategy(t *testing.T) {
	t.Parallel()

	t.Run("last write wins", func(t *testing.T) {
		mod, _, _ := calcModule()
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", testScript, mock.Anything).Return(successResult(mod))
		c := newTestCompiler(t, eng)

		same := c.UseMemoryCompile().UseFileCompile().UseMemoryCompile()
		assert.Same(t, c, same)
		assert.False(t, c.UsesFileCompile())

		_, err := c.CompileModule(testScript)
		require.NoError(t, err)
		eng.AssertCalled(t, "MemoryCompile", testScript, c.Domain())
		eng.AssertNotCalled(t, "FileCompile", mock.Anything, mock.Anything)
	})

	t.Run("file mode dispatches to file entry point", func(t *testing.T) {
		mod, _, _ := calcModule()
		eng := new(mocks.Engine)
		eng.On("FileCompile", testScript, mock.Anything).Return(successResult(mod))
		c := newTestCompiler(t, eng).UseFileCompile()

		got, err := c.CompileModule(testScript)
		require.NoError(t, err)
		assert.Same(t, mod, got)
		eng.AssertNotCalled(t, "MemoryCompile", mock.Anything, mock.Anything)
	})
}

func TestCompiler_CompileModule(t *testing.T) {
	t.Parallel()

	t.Run("success keeps warnings", func(t *testing.T) {
		mod, _, _ := calcModule()
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", testScript, mock.Anything).Return(successResult(mod))
		c := newTestCompiler(t, eng)

		got, err := c.CompileModule(testScript)
		require.NoError(t, err)
		assert.Same(t, mod, got)

		rec := c.Diagnostics()
		assert.Equal(t, diagnostics.None, rec.ErrorKind)
		assert.Equal(t, testScript, rec.Source)
		assert.Equal(t, "warning: unused", rec.Formatted)
		require.Len(t, rec.Entries, 1)
	})

	t.Run("failure", func(t *testing.T) {
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", "bad", mock.Anything).Return(failedResult())
		c := newTestCompiler(t, eng)

		got, err := c.CompileModule("bad")
		require.ErrorIs(t, err, diagnostics.ErrModuleFailure)
		assert.Nil(t, got)

		rec := c.Diagnostics()
		assert.Equal(t, diagnostics.ModuleFailure, rec.ErrorKind)
		assert.Equal(t, msgModuleFailed, rec.Message)
		assert.Equal(t, "1:5: error: got newline, want ':'", rec.Formatted)
		assert.Equal(t, "bad", rec.Source)
	})

	t.Run("record reflects only latest run", func(t *testing.T) {
		mod, _, _ := calcModule()
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", "bad", mock.Anything).Return(failedResult())
		eng.On("MemoryCompile", testScript, mock.Anything).Return(engine.Result{Module: mod})
		c := newTestCompiler(t, eng)

		_, err := c.CompileModule("bad")
		require.Error(t, err)
		_, err = c.CompileModule(testScript)
		require.NoError(t, err)

		rec := c.Diagnostics()
		assert.Equal(t, diagnostics.None, rec.ErrorKind)
		assert.Empty(t, rec.Message)
		assert.Empty(t, rec.Formatted)
		assert.Empty(t, rec.Entries)
	})
}

func TestCompiler_ModuleFailurePropagates(t *testing.T) {
	t.Parallel()

	eng := new(mocks.Engine)
	eng.On("MemoryCompile", "bad", mock.Anything).Return(failedResult())
	c := newTestCompiler(t, eng)

	assertModuleFailure := func(t *testing.T, err error) {
		t.Helper()
		require.ErrorIs(t, err, diagnostics.ErrModuleFailure)
		assert.Equal(t, diagnostics.ModuleFailure, c.Diagnostics().ErrorKind)
	}

	mod, err := c.CompileModule("bad")
	assert.Nil(t, mod)
	assertModuleFailure(t, err)

	typ, err := c.ResolveType("bad", "Calc")
	assert.Nil(t, typ)
	assertModuleFailure(t, err)

	method, err := c.ResolveMethod("bad", "Calc", "Add")
	assert.Nil(t, method)
	assertModuleFailure(t, err)

	fn, err := c.BindCallable("bad", "Calc", "Add", reflect.TypeFor[func(int, int) int](), nil)
	assert.False(t, fn.IsValid())
	assertModuleFailure(t, err)

	typed, err := Bind[func(int, int) int](c, "bad", "Calc", "Add", nil)
	assert.Nil(t, typed)
	assertModuleFailure(t, err)

	eng.AssertNotCalled(t, "InferMethodName", mock.Anything)
}

func TestCompiler_ResolveType(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		mod, typ, _ := calcModule()
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", testScript, mock.Anything).Return(engine.Result{Module: mod})
		c := newTestCompiler(t, eng)

		got, err := c.ResolveType(testScript, "Calc")
		require.NoError(t, err)
		assert.Same(t, typ, got)
		assert.Equal(t, "Calc", got.Name())
	})

	t.Run("first declaration wins", func(t *testing.T) {
		first := mocks.NewType("Calc")
		second := mocks.NewType("Calc")
		mod := mocks.NewModule("dupes", first, second)
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", testScript, mock.Anything).Return(engine.Result{Module: mod})
		c := newTestCompiler(t, eng)

		got, err := c.ResolveType(testScript, "Calc")
		require.NoError(t, err)
		assert.Same(t, first, got)
	})

	t.Run("missing", func(t *testing.T) {
		mod, _, _ := calcModule()
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", testScript, mock.Anything).Return(engine.Result{Module: mod})
		c := newTestCompiler(t, eng)

		got, err := c.ResolveType(testScript, "X")
		require.ErrorIs(t, err, diagnostics.ErrTypeFailure)
		assert.Nil(t, got)

		rec := c.Diagnostics()
		assert.Equal(t, diagnostics.TypeFailure, rec.ErrorKind)
		assert.Equal(t, `type "X" not found in module "script_test_1"`, rec.Message)
	})
}

func TestCompiler_ResolveMethod(t *testing.T) {
	t.Parallel()

	t.Run("explicit name", func(t *testing.T) {
		mod, _, method := calcModule()
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", testScript, mock.Anything).Return(engine.Result{Module: mod})
		c := newTestCompiler(t, eng)

		got, err := c.ResolveMethod(testScript, "Calc", "Add")
		require.NoError(t, err)
		assert.Same(t, method, got)
		assert.Equal(t, "Add", got.Name())
		eng.AssertNotCalled(t, "InferMethodName", mock.Anything)
	})

	t.Run("inferred name", func(t *testing.T) {
		mod, _, method := calcModule()
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", testScript, mock.Anything).Return(engine.Result{Module: mod})
		eng.On("InferMethodName", testScript).Return("Add")
		c := newTestCompiler(t, eng)

		got, err := c.ResolveMethod(testScript, "Calc", "")
		require.NoError(t, err)
		assert.Same(t, method, got)
		eng.AssertExpectations(t)
	})

	t.Run("missing", func(t *testing.T) {
		mod, _, _ := calcModule()
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", testScript, mock.Anything).Return(engine.Result{Module: mod})
		c := newTestCompiler(t, eng)

		got, err := c.ResolveMethod(testScript, "Calc", "M")
		require.ErrorIs(t, err, diagnostics.ErrMethodFailure)
		assert.Nil(t, got)

		rec := c.Diagnostics()
		assert.Equal(t, diagnostics.MethodFailure, rec.ErrorKind)
		assert.Equal(t, `method "M" not found on type "Calc"`, rec.Message)
	})

	t.Run("type failure short-circuits", func(t *testing.T) {
		mod, _, _ := calcModule()
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", testScript, mock.Anything).Return(engine.Result{Module: mod})
		c := newTestCompiler(t, eng)

		_, err := c.ResolveMethod(testScript, "Other", "")
		require.ErrorIs(t, err, diagnostics.ErrTypeFailure)
		eng.AssertNotCalled(t, "InferMethodName", mock.Anything)
	})
}

func TestCompiler_BindCallable(t *testing.T) {
	t.Parallel()

	shape := reflect.TypeFor[func(int, int) int]()
	add := func(a, b int) int { return a + b }

	setup := func(t *testing.T) (*Compiler, *mocks.Method) {
		t.Helper()
		mod, _, method := calcModule()
		eng := new(mocks.Engine)
		eng.On("MemoryCompile", testScript, mock.Anything).Return(engine.Result{Module: mod})
		return newTestCompiler(t, eng), method
	}

	t.Run("success", func(t *testing.T) {
		c, method := setup(t)
		method.On("Bind", shape, nil).Return(reflect.ValueOf(add), nil)

		fn, err := c.BindCallable(testScript, "Calc", "Add", shape, nil)
		require.NoError(t, err)
		out := fn.Call([]reflect.Value{reflect.ValueOf(2), reflect.ValueOf(3)})
		assert.Equal(t, 5, out[0].Interface())
	})

	t.Run("typed success", func(t *testing.T) {
		c, method := setup(t)
		method.On("Bind", shape, nil).Return(reflect.ValueOf(add), nil)

		fn, err := Bind[func(int, int) int](c, testScript, "Calc", "Add", nil)
		require.NoError(t, err)
		assert.Equal(t, 5, fn(2, 3))
		assert.Equal(t, diagnostics.None, c.Diagnostics().ErrorKind)
	})

	t.Run("binder passed through", func(t *testing.T) {
		c, method := setup(t)
		receiver := struct{ ID int }{ID: 7}
		method.On("Bind", shape, receiver).Return(reflect.ValueOf(add), nil)

		_, err := c.BindCallable(testScript, "Calc", "Add", shape, receiver)
		require.NoError(t, err)
		method.AssertExpectations(t)
	})

	failures := []struct {
		name    string
		shape   reflect.Type
		prepare func(m *mocks.Method, shape reflect.Type)
		wantMsg string
	}{
		{
			name:  "incompatible shape",
			shape: reflect.TypeFor[func(string) string](),
			prepare: func(m *mocks.Method, shape reflect.Type) {
				m.On("Bind", shape, nil).Return(nil, errors.New("arity mismatch"))
			},
			wantMsg: `cannot bind method "Add" to func(string) string`,
		},
		{
			name:  "engine panics",
			shape: shape,
			prepare: func(m *mocks.Method, shape reflect.Type) {
				m.On("Bind", shape, nil).Run(func(mock.Arguments) { panic("platform exploded") })
			},
			wantMsg: `cannot bind method "Add" to func(int, int) int`,
		},
		{
			name:  "engine returns wrong type",
			shape: shape,
			prepare: func(m *mocks.Method, shape reflect.Type) {
				m.On("Bind", shape, nil).Return(reflect.ValueOf(func() {}), nil)
			},
			wantMsg: `cannot bind method "Add" to func(int, int) int`,
		},
		{
			name:    "not a func",
			shape:   reflect.TypeFor[int](),
			prepare: func(*mocks.Method, reflect.Type) {},
			wantMsg: `cannot bind method "Add" to int`,
		},
		{
			name:    "nil shape",
			shape:   nil,
			prepare: func(*mocks.Method, reflect.Type) {},
			wantMsg: msgShapeNil,
		},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			c, method := setup(t)
			tc.prepare(method, tc.shape)

			var fn reflect.Value
			var err error
			require.NotPanics(t, func() {
				fn, err = c.BindCallable(testScript, "Calc", "Add", tc.shape, nil)
			})
			require.ErrorIs(t, err, diagnostics.ErrCallableFailure)
			assert.False(t, fn.IsValid())

			rec := c.Diagnostics()
			assert.Equal(t, diagnostics.CallableFailure, rec.ErrorKind)
			assert.Equal(t, tc.wantMsg, rec.Message)
		})
	}

	t.Run("typed incompatible shape", func(t *testing.T) {
		c, method := setup(t)
		typedShape := reflect.TypeFor[func(string) string]()
		method.On("Bind", typedShape, nil).Return(nil, errors.New("arity mismatch"))

		fn, err := Bind[func(string) string](c, testScript, "Calc", "Add", nil)
		require.ErrorIs(t, err, diagnostics.ErrCallableFailure)
		assert.Nil(t, fn)
		assert.Equal(t, diagnostics.CallableFailure, diagnostics.KindOf(err))
	})

	t.Run("typed non-func shape", func(t *testing.T) {
		c, _ := setup(t)
		v, err := Bind[int](c, testScript, "Calc", "Add", nil)
		require.ErrorIs(t, err, diagnostics.ErrCallableFailure)
		assert.Zero(t, v)
	})
}
