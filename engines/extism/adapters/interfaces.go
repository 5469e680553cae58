// Package adapters narrows the Extism SDK to the calls a bound plugin method
// makes, so modules and methods can be tested with mocks.
package adapters

import (
	"context"
	"errors"

	extismSDK "github.com/extism/go-sdk"
)

// ErrPluginClosed is returned by adapters whose plugin was closed or never set.
var ErrPluginClosed = errors.New("plugin is closed")

// CompiledPlugin is a compiled module that stamps out one instance per call.
// Closing it releases the compiled code shared by its instances.
type CompiledPlugin interface {
	Instance(ctx context.Context, config extismSDK.PluginInstanceConfig) (PluginInstance, error)
	Close(ctx context.Context) error
}

// PluginInstance is one live plugin. Method lookup uses FunctionExists and a
// bound call uses CallWithContext, whose first result is the export's exit code.
type PluginInstance interface {
	CallWithContext(ctx context.Context, name string, data []byte) (uint32, []byte, error)
	FunctionExists(name string) bool
	Close(ctx context.Context) error
}
