package starlark

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/robbyt/go-scriptbind/artifact"
	"github.com/robbyt/go-scriptbind/engines/starlark/internal"
	starlarkLib "go.starlark.net/starlark"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// InvocationError is a failure raised while a bound method runs. It is
// returned through the error result of the bound func, or panicked when the
// shape has no error result.
type InvocationError struct {
	Type   string
	Method string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Type, e.Method, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Method is a callable attribute of a Starlark type.
type Method struct {
	typeName string
	name     string
	fn       starlarkLib.Callable
	logger   *slog.Logger
}

var _ artifact.Method = (*Method)(nil)

func (m *Method) Name() string {
	return m.name
}

func (m *Method) TypeName() string {
	return m.typeName
}

// signature is a shape checked against what a Starlark call can accept.
type signature struct {
	shape    reflect.Type
	hasCtx   bool
	params   []reflect.Type
	result   reflect.Type // nil when the shape returns no value
	hasError bool
}

func parseSignature(shape reflect.Type) (*signature, error) {
	if shape.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s", ErrNotFunc, shape)
	}
	if shape.IsVariadic() {
		return nil, fmt.Errorf("%w: %s", ErrVariadicShape, shape)
	}

	sig := &signature{shape: shape}
	for i := range shape.NumIn() {
		in := shape.In(i)
		if i == 0 && in == contextType {
			sig.hasCtx = true
			continue
		}
		if !internal.CanConvertToStarlark(in) {
			return nil, fmt.Errorf("%w: parameter %d is %s", ErrUnsupportedParam, i, in)
		}
		sig.params = append(sig.params, in)
	}

	switch shape.NumOut() {
	case 0:
	case 1:
		if shape.Out(0) == errorType {
			sig.hasError = true
		} else {
			sig.result = shape.Out(0)
		}
	case 2:
		if shape.Out(1) != errorType {
			return nil, fmt.Errorf("%w: second result must be error in %s", ErrUnsupportedOut, shape)
		}
		sig.result = shape.Out(0)
		sig.hasError = true
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOut, shape)
	}
	if sig.result != nil && !internal.CanConvertFromStarlark(sig.result) {
		return nil, fmt.Errorf("%w: result %s", ErrUnsupportedOut, sig.result)
	}
	return sig, nil
}

// checkArity compares the number of positional arguments a call will pass
// with the parameters of a Starlark function. Builtins are not checked.
func checkArity(fn starlarkLib.Callable, n int) error {
	f, ok := fn.(*starlarkLib.Function)
	if !ok {
		return nil
	}

	positional := f.NumParams() - f.NumKwonlyParams()
	if f.HasVarargs() {
		positional--
	}
	if f.HasKwargs() {
		positional--
	}

	required := 0
	for i := range positional {
		if f.ParamDefault(i) == nil {
			required = i + 1
		}
	}
	for i := positional; i < positional+f.NumKwonlyParams(); i++ {
		if f.ParamDefault(i) == nil {
			name, _ := f.Param(i)
			return fmt.Errorf("%w: keyword-only parameter %q has no default", ErrArity, name)
		}
	}

	if n < required || (n > positional && !f.HasVarargs()) {
		return fmt.Errorf("%w: %s takes %d to %d positional arguments, shape passes %d",
			ErrArity, f.Name(), required, positional, n)
	}
	return nil
}

// Bind creates a func of type shape that calls the method. A non-nil binder
// is converted to a Starlark value and passed as the first argument.
func (m *Method) Bind(shape reflect.Type, binder any) (reflect.Value, error) {
	sig, err := parseSignature(shape)
	if err != nil {
		return reflect.Value{}, err
	}

	var receiver starlarkLib.Value
	argc := len(sig.params)
	if binder != nil {
		if receiver, err = internal.ToValue(binder); err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %w", ErrBinder, err)
		}
		receiver.Freeze()
		argc++
	}
	if err := checkArity(m.fn, argc); err != nil {
		return reflect.Value{}, err
	}

	impl := func(in []reflect.Value) []reflect.Value {
		ctx := context.Background()
		if sig.hasCtx {
			if c, ok := in[0].Interface().(context.Context); ok && c != nil {
				ctx = c
			}
			in = in[1:]
		}
		ret, err := m.invoke(ctx, sig, receiver, in)
		return sig.results(ret, err, m)
	}
	return reflect.MakeFunc(shape, impl), nil
}

func (m *Method) invoke(
	ctx context.Context,
	sig *signature,
	receiver starlarkLib.Value,
	in []reflect.Value,
) (reflect.Value, error) {
	logger := m.logger.WithGroup("invoke")

	if err := ctx.Err(); err != nil {
		return reflect.Value{}, err
	}

	args := make(starlarkLib.Tuple, 0, len(in)+1)
	if receiver != nil {
		args = append(args, receiver)
	}
	for i, v := range in {
		sv, err := internal.ToStarlark(v)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("argument %d: %w", i, err)
		}
		args = append(args, sv)
	}

	thread := &starlarkLib.Thread{
		Name: m.typeName + "." + m.name,
		Print: func(thread *starlarkLib.Thread, msg string) {
			logger.InfoContext(ctx, msg, "starlark-thread", thread.Name)
		},
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	out, err := starlarkLib.Call(thread, m.fn, args, nil)
	if err != nil {
		logger.DebugContext(ctx, "script call failed", "error", err)
		return reflect.Value{}, err
	}
	if sig.result == nil {
		return reflect.Value{}, nil
	}

	rv, err := internal.FromStarlark(out, sig.result)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("result: %w", err)
	}
	return rv, nil
}

// results builds the return values of the bound func.
func (sig *signature) results(ret reflect.Value, err error, m *Method) []reflect.Value {
	if err != nil {
		invErr := &InvocationError{Type: m.typeName, Method: m.name, Err: err}
		if !sig.hasError {
			panic(invErr)
		}
		err = invErr
	}

	out := make([]reflect.Value, 0, sig.shape.NumOut())
	if sig.result != nil {
		if !ret.IsValid() {
			ret = reflect.Zero(sig.result)
		}
		out = append(out, ret)
	}
	if sig.hasError {
		errVal := reflect.Zero(errorType)
		if err != nil {
			errVal = reflect.ValueOf(&err).Elem()
		}
		out = append(out, errVal)
	}
	return out
}
