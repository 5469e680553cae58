package compiler

import (
	"fmt"
	"reflect"

	"github.com/robbyt/go-scriptbind/artifact"
	"github.com/robbyt/go-scriptbind/diagnostics"
)

// BindCallable resolves the method and binds it to a function value of type
// shape. The returned value is always of kind reflect.Func on success. Any
// error or panic raised while binding is reported as a CallableFailure.
func (c *Compiler) BindCallable(
	script, typeName, methodName string,
	shape reflect.Type,
	binder any,
) (reflect.Value, error) {
	m, err := c.ResolveMethod(script, typeName, methodName)
	if err != nil {
		return reflect.Value{}, err
	}
	return c.bind(m, shape, binder)
}

// Bind is the typed form of BindCallable. F must be a func type.
func Bind[F any](
	c *Compiler,
	script, typeName, methodName string,
	binder any,
) (F, error) {
	var zero F
	v, err := c.BindCallable(script, typeName, methodName, reflect.TypeFor[F](), binder)
	if err != nil {
		return zero, err
	}

	fn, ok := v.Interface().(F)
	if !ok {
		msg := fmt.Sprintf("cannot bind method %q to %s", methodName, reflect.TypeFor[F]())
		return zero, c.record.Fail(diagnostics.CallableFailure, msg, nil)
	}
	return fn, nil
}

func (c *Compiler) bind(m artifact.Method, shape reflect.Type, binder any) (fn reflect.Value, err error) {
	logger := c.logger.WithGroup("BindCallable")

	if shape == nil {
		return reflect.Value{}, c.record.Fail(diagnostics.CallableFailure, msgShapeNil, nil)
	}

	fail := func(cause error) (reflect.Value, error) {
		msg := fmt.Sprintf("cannot bind method %q to %s", m.Name(), shape)
		logger.Warn(msg, "error", cause)
		return reflect.Value{}, c.record.Fail(diagnostics.CallableFailure, msg, cause)
	}

	if shape.Kind() != reflect.Func {
		return fail(fmt.Errorf("%s is not a func type", shape))
	}

	defer func() {
		if r := recover(); r != nil {
			fn, err = fail(fmt.Errorf("binding panicked: %v", r))
		}
	}()

	fn, err = m.Bind(shape, binder)
	if err != nil {
		return fail(err)
	}
	if !fn.IsValid() || fn.Type() != shape {
		return fail(fmt.Errorf("engine returned %s", describe(fn)))
	}
	return fn, nil
}

func describe(v reflect.Value) string {
	if !v.IsValid() {
		return "an invalid value"
	}
	return v.Type().String()
}
