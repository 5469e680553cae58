// Package types names the available compile engines.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// Type identifies a compile engine.
type Type string

const (
	// Starlark compiles Starlark source text.
	Starlark Type = "starlark"
	// Extism compiles base64 encoded WASM plugins.
	Extism Type = "extism"
)

var ErrUnknownType = errors.New("unknown engine type")

// All lists the known engine types.
func All() []Type {
	return []Type{Starlark, Extism}
}

// Parse returns the engine type named by s, ignoring case.
func Parse(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

func (t Type) String() string {
	return string(t)
}
