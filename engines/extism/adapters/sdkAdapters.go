package adapters

import (
	"context"
	"sync"

	extismSDK "github.com/extism/go-sdk"
	"github.com/tetratelabs/wazero"
)

var (
	_ CompiledPlugin = (*sdkCompiledPlugin)(nil)
	_ PluginInstance = (*sdkPluginAdapter)(nil)
)

// sdkCompiledPlugin forwards to an SDK plugin until it is closed.
type sdkCompiledPlugin struct {
	mu     sync.RWMutex
	plugin *extismSDK.CompiledPlugin
}

// NewCompiledPluginAdapter wraps a compiled SDK plugin. A nil plugin yields nil.
func NewCompiledPluginAdapter(plugin *extismSDK.CompiledPlugin) CompiledPlugin {
	if plugin == nil {
		return nil
	}
	return &sdkCompiledPlugin{plugin: plugin}
}

func (p *sdkCompiledPlugin) Instance(
	ctx context.Context,
	config extismSDK.PluginInstanceConfig,
) (PluginInstance, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.plugin == nil {
		return nil, ErrPluginClosed
	}
	instance, err := p.plugin.Instance(ctx, config)
	if err != nil {
		return nil, err
	}
	return &sdkPluginAdapter{plugin: instance}, nil
}

// Close releases the plugin once; later calls are no-ops.
func (p *sdkCompiledPlugin) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.plugin == nil {
		return nil
	}
	err := p.plugin.Close(ctx)
	p.plugin = nil
	return err
}

// sdkPluginAdapter wraps a single SDK plugin instance. Instances are used by
// one call at a time.
type sdkPluginAdapter struct {
	plugin *extismSDK.Plugin
}

func (p *sdkPluginAdapter) CallWithContext(
	ctx context.Context,
	name string,
	data []byte,
) (uint32, []byte, error) {
	if p.plugin == nil {
		return 0, nil, ErrPluginClosed
	}
	return p.plugin.CallWithContext(ctx, name, data)
}

func (p *sdkPluginAdapter) FunctionExists(name string) bool {
	return p.plugin != nil && p.plugin.FunctionExists(name)
}

func (p *sdkPluginAdapter) Close(ctx context.Context) error {
	if p.plugin == nil {
		return nil
	}
	err := p.plugin.Close(ctx)
	p.plugin = nil
	return err
}

// NewPluginInstanceConfig returns the instance config used when a bound call
// is not given one.
func NewPluginInstanceConfig() extismSDK.PluginInstanceConfig {
	return extismSDK.PluginInstanceConfig{
		ModuleConfig: wazero.NewModuleConfig().WithSysWalltime(),
	}
}
