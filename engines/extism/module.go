package extism

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-scriptbind/artifact"
	"github.com/robbyt/go-scriptbind/engines/extism/adapters"
)

// Module is a compiled plugin.
type Module struct {
	name   string
	typ    *Type
	plugin adapters.CompiledPlugin
}

var _ artifact.Module = (*Module)(nil)

func newModule(name, typeName string, plugin adapters.CompiledPlugin, logger *slog.Logger) *Module {
	m := &Module{name: name, plugin: plugin}
	m.typ = &Type{name: typeName, plugin: plugin, logger: logger}
	return m
}

func (m *Module) String() string {
	return fmt.Sprintf("extism.Module{Name: %s, Type: %s}", m.name, m.typ.name)
}

func (m *Module) Name() string {
	return m.name
}

func (m *Module) Types() []artifact.Type {
	return []artifact.Type{m.typ}
}

// Close releases the compiled plugin.
func (m *Module) Close(ctx context.Context) error {
	return m.plugin.Close(ctx)
}

// Type is the single type of a plugin module. Its methods are the exported
// plugin functions.
type Type struct {
	name   string
	plugin adapters.CompiledPlugin
	logger *slog.Logger
}

var _ artifact.Type = (*Type)(nil)

func (t *Type) Name() string {
	return t.name
}

// Method reports the export if a fresh instance of the plugin has it.
func (t *Type) Method(name string) (artifact.Method, bool) {
	logger := t.logger.WithGroup("Method")
	ctx := context.Background()

	instance, err := t.plugin.Instance(ctx, adapters.NewPluginInstanceConfig())
	if err != nil {
		logger.Warn("failed to create plugin instance", "error", err)
		return nil, false
	}
	defer func() {
		if err := instance.Close(ctx); err != nil {
			logger.Warn("failed to close plugin instance", "error", err)
		}
	}()

	if !instance.FunctionExists(name) {
		return nil, false
	}
	return &Method{
		typeName: t.name,
		name:     name,
		plugin:   t.plugin,
		logger:   t.logger,
	}, true
}
