package compile

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	extismSDK "github.com/extism/go-sdk"
	"github.com/robbyt/go-scriptbind/engines/extism/adapters"
)

// DecodeBase64 returns the WASM bytes of a base64 script. Surrounding
// whitespace is ignored.
func DecodeBase64(scriptContent string) ([]byte, error) {
	wasmBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(scriptContent))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBinary, err)
	}
	if len(wasmBytes) == 0 {
		return nil, ErrContentNil
	}
	return wasmBytes, nil
}

// CompileBytes creates a compiled Extism plugin from raw WASM bytes. Nil
// opts selects WithDefaultCompileSettings.
func CompileBytes(
	ctx context.Context,
	wasmBytes []byte,
	opts *Settings,
) (adapters.CompiledPlugin, error) {
	if len(wasmBytes) == 0 {
		return nil, ErrContentNil
	}

	if opts == nil {
		opts = WithDefaultCompileSettings()
	}

	// Create manifest from wasm bytes
	manifest := extismSDK.Manifest{
		Wasm: []extismSDK.Wasm{
			extismSDK.WasmData{
				Data: wasmBytes,
			},
		},
	}

	// Configure the plugin
	config := extismSDK.PluginConfig{
		EnableWasi:    opts.EnableWASI,
		RuntimeConfig: opts.RuntimeConfig,
	}

	// Create compiled plugin using the SDK
	plugin, err := extismSDK.NewCompiledPlugin(ctx, manifest, config, opts.HostFunctions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}

	// Wrap the SDK plugin with our adapter
	return adapters.NewCompiledPluginAdapter(plugin), nil
}
