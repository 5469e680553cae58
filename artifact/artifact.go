// Package artifact defines the reflection surface of a compiled script: a
// module, the types it declares, and the methods on those types. Engines
// provide the implementations; the compiler pipeline only walks these
// interfaces.
package artifact

import "reflect"

// Module is the compiled artifact produced from one script.
type Module interface {
	// Name is unique within the domain the module was registered into.
	Name() string

	// Types returns the declared types in declaration order.
	Types() []Type
}

// Type is a named type declared by a module.
type Type interface {
	Name() string

	// Method looks a method up by exact name. There is no signature
	// disambiguation; the engine returns its first match.
	Method(name string) (Method, bool)
}

// Method is a named, invocable member of a Type.
type Method interface {
	Name() string
	TypeName() string

	// Bind creates a function value of type shape that invokes this method.
	// The binder is an engine-specific binding hint and may be nil. Bind
	// returns an error when the method cannot satisfy shape.
	Bind(shape reflect.Type, binder any) (reflect.Value, error)
}

// MethodLister is implemented by types that can enumerate their methods.
type MethodLister interface {
	Methods() []string
}

// FindType returns the first type in m whose name equals name.
func FindType(m Module, name string) (Type, bool) {
	for _, t := range m.Types() {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}
