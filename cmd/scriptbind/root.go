package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	scriptbind "github.com/robbyt/go-scriptbind"
	"github.com/robbyt/go-scriptbind/compiler"
	"github.com/robbyt/go-scriptbind/domain"
	"github.com/robbyt/go-scriptbind/engines/types"
	"github.com/robbyt/go-scriptbind/loader"
	"github.com/spf13/cobra"
)

// app is the state shared by all subcommands of one invocation.
type app struct {
	configPath string
	flags      config
	cfg        config
}

func newRootCmd() *cobra.Command {
	a := &app{flags: defaultConfig()}

	root := &cobra.Command{
		Use:           "scriptbind",
		Short:         "Compile scripts and bind their methods to Go funcs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.resolveConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "TOML config file")
	pf.StringVar(&a.flags.Engine, "engine", a.flags.Engine, "compile engine (starlark|extism)")
	pf.StringVar(&a.flags.Mode, "mode", a.flags.Mode, "compile strategy (memory|file)")
	pf.StringVar(&a.flags.CacheDir, "cache-dir", "", "directory for file compile artifacts")
	pf.StringVar(&a.flags.Domain, "domain", a.flags.Domain, "compilation domain name")
	pf.StringVar(&a.flags.EntryPoint, "entry-point", "", "default plugin function (extism)")
	pf.StringVar(&a.flags.TypeName, "type-name", "", "plugin type name (extism)")
	pf.StringVar(&a.flags.LogLevel, "log-level", a.flags.LogLevel, "log level (debug|info|warn|error)")
	pf.StringVar(&a.flags.Color, "color", a.flags.Color, "colorize output (auto|on|off)")

	root.AddCommand(newInspectCmd(a), newCallCmd(a), newDiagCmd(a))
	return root
}

// flagKeys maps persistent flag names to the config fields they override.
func (a *app) flagKeys() map[string]*string {
	return map[string]*string{
		"engine":      &a.cfg.Engine,
		"mode":        &a.cfg.Mode,
		"cache-dir":   &a.cfg.CacheDir,
		"domain":      &a.cfg.Domain,
		"entry-point": &a.cfg.EntryPoint,
		"type-name":   &a.cfg.TypeName,
		"log-level":   &a.cfg.LogLevel,
		"color":       &a.cfg.Color,
	}
}

// resolveConfig layers defaults, the config file and explicitly set flags.
func (a *app) resolveConfig(cmd *cobra.Command) error {
	a.cfg = defaultConfig()
	if a.configPath != "" {
		if err := loadConfigFile(a.configPath, &a.cfg); err != nil {
			return err
		}
	}

	for name, field := range a.flagKeys() {
		f := cmd.Flags().Lookup(name)
		if f != nil && f.Changed {
			*field = f.Value.String()
		}
	}
	a.cfg.Mode = strings.ToLower(a.cfg.Mode)

	switch a.cfg.Color {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	}
	return a.cfg.validate()
}

func (a *app) newCompiler(logOut io.Writer) (*compiler.Compiler, error) {
	engineType, err := a.cfg.engineType()
	if err != nil {
		return nil, err
	}
	level, err := a.cfg.logLevel()
	if err != nil {
		return nil, err
	}

	dom := domain.Default()
	if a.cfg.Domain != domain.DefaultName {
		if dom, err = domain.New(a.cfg.Domain); err != nil {
			return nil, err
		}
	}

	opts := []compiler.FunctionalOption{compiler.WithDomain(dom)}
	if a.cfg.Mode == modeFile {
		opts = append(opts, compiler.WithFileCompile())
	}

	return scriptbind.NewCompiler(engineType, scriptbind.EngineConfig{
		CacheDir:   a.cfg.CacheDir,
		LogHandler: slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}),
		EntryPoint: a.cfg.EntryPoint,
		TypeName:   a.cfg.TypeName,
	}, opts...)
}

// loadScript reads the script at path in the form the configured engine expects.
func (a *app) loadScript(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	l, err := loader.NewFromDisk(abs)
	if err != nil {
		return "", err
	}
	if engineType, _ := a.cfg.engineType(); engineType == types.Extism {
		return scriptbind.LoadPlugin(l)
	}
	return scriptbind.LoadScript(l)
}
