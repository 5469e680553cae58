package internal

import (
	"maps"

	starlarkJSON "go.starlark.net/lib/json"
	starlarkMath "go.starlark.net/lib/math"
	starlarkTime "go.starlark.net/lib/time"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Predeclared names available to every script, both when the script is
// resolved and when its top level is executed.
const (
	namespaceJSON = "json"
	namespaceMath = "math"
	namespaceTime = "time"

	// BuiltinStruct declares an anonymous type: Calc = struct(Add = add)
	BuiltinStruct = "struct"
	// BuiltinModule declares a named type: Calc = module("Calc", Add = add)
	BuiltinModule = "module"
)

// StarlarkModules returns a copy of the Starlark universe with the standard
// library modules and the type declaring builtins added.
func StarlarkModules() starlarkLib.StringDict {
	universe := maps.Clone(starlarkLib.Universe)

	universe[namespaceJSON] = starlarkJSON.Module
	universe[namespaceMath] = starlarkMath.Module
	universe[namespaceTime] = starlarkTime.Module
	universe[BuiltinStruct] = starlarkLib.NewBuiltin(BuiltinStruct, starlarkstruct.Make)
	universe[BuiltinModule] = starlarkLib.NewBuiltin(BuiltinModule, starlarkstruct.MakeModule)

	return universe
}
