package extism

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	extismSDK "github.com/extism/go-sdk"
	"github.com/robbyt/go-scriptbind/artifact"
	"github.com/robbyt/go-scriptbind/engines/extism/adapters"
	"github.com/robbyt/go-scriptbind/engines/extism/internal"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// InvocationError is a failed plugin call. Bound funcs without an error
// result panic with it.
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

// Method is an exported plugin function.
type Method struct {
	typeName string
	name     string
	plugin   adapters.CompiledPlugin
	logger   *slog.Logger
}

var _ artifact.Method = (*Method)(nil)

func (m *Method) Name() string {
	return m.name
}

func (m *Method) TypeName() string {
	return m.typeName
}

type signature struct {
	shape    reflect.Type
	hasCtx   bool
	input    reflect.Type
	result   reflect.Type
	hasError bool
}

// parseSignature accepts func([ctx,] [In]) with results (Out), (Out, error)
// or (error).
func parseSignature(shape reflect.Type) (*signature, error) {
	if shape.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s", ErrNotFunc, shape)
	}
	if shape.IsVariadic() {
		return nil, fmt.Errorf("%w: %s", ErrVariadicShape, shape)
	}

	sig := &signature{shape: shape}
	params := make([]reflect.Type, 0, shape.NumIn())
	for i := range shape.NumIn() {
		if i == 0 && shape.In(i) == contextType {
			sig.hasCtx = true
			continue
		}
		params = append(params, shape.In(i))
	}
	switch {
	case len(params) > 1:
		return nil, fmt.Errorf("%w: plugins take at most one input in %s", ErrUnsupportedIn, shape)
	case len(params) == 1:
		if !internal.Supported(params[0]) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedIn, params[0])
		}
		sig.input = params[0]
	}

	switch shape.NumOut() {
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
	if sig.result != nil && !internal.Supported(sig.result) {
		return nil, fmt.Errorf("%w: result %s", ErrUnsupportedOut, sig.result)
	}
	return sig, nil
}

func instanceConfig(binder any) (extismSDK.PluginInstanceConfig, error) {
	switch b := binder.(type) {
	case nil:
		return adapters.NewPluginInstanceConfig(), nil
	case extismSDK.PluginInstanceConfig:
		return b, nil
	case *extismSDK.PluginInstanceConfig:
		if b != nil {
			return *b, nil
		}
		return adapters.NewPluginInstanceConfig(), nil
	default:
		return extismSDK.PluginInstanceConfig{}, fmt.Errorf("%w: got %T", ErrBinder, binder)
	}
}

// Bind creates a func of type shape that calls the export on a fresh plugin
// instance per call. The binder, when set, is the instance config.
func (m *Method) Bind(shape reflect.Type, binder any) (reflect.Value, error) {
	sig, err := parseSignature(shape)
	if err != nil {
		return reflect.Value{}, err
	}
	config, err := instanceConfig(binder)
	if err != nil {
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
		var arg reflect.Value
		if len(in) == 1 {
			arg = in[0]
		}
		ret, err := m.call(ctx, sig, config, arg)
		return sig.results(ret, err, m)
	}
	return reflect.MakeFunc(shape, impl), nil
}

func (m *Method) call(
	ctx context.Context,
	sig *signature,
	config extismSDK.PluginInstanceConfig,
	arg reflect.Value,
) (reflect.Value, error) {
	logger := m.logger.WithGroup("call")

	input, err := internal.Encode(arg)
	if err != nil {
		return reflect.Value{}, err
	}

	instance, err := m.plugin.Instance(ctx, config)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to create plugin instance: %w", err)
	}
	defer func() {
		if err := instance.Close(ctx); err != nil {
			logger.WarnContext(ctx, "failed to close plugin instance", "error", err)
		}
	}()

	exit, output, err := instance.CallWithContext(ctx, m.name, input)
	if err != nil {
		if ctx.Err() != nil {
			return reflect.Value{}, fmt.Errorf("execution cancelled: %w", ctx.Err())
		}
		return reflect.Value{}, fmt.Errorf("execution failed: %w", err)
	}
	if exit != 0 {
		return reflect.Value{}, fmt.Errorf("%w: %d", ErrExitCode, exit)
	}
	logger.DebugContext(ctx, "call complete", "method", m.name, "outputBytes", len(output))

	if sig.result == nil {
		return reflect.Value{}, nil
	}
	return internal.Decode(output, sig.result)
}

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
