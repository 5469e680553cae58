package compiler

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-scriptbind/domain"
)

// FunctionalOption is a function that configures a Compiler instance
type FunctionalOption func(*Compiler) error

// WithDomain binds the compiler to a compilation domain. Without it the
// compiler binds domain.Default().
func WithDomain(d *domain.Domain) FunctionalOption {
	return func(c *Compiler) error {
		if d == nil {
			return fmt.Errorf("domain cannot be nil")
		}
		c.domain = d
		return nil
	}
}

// WithFileCompile starts the compiler in file-backed mode.
func WithFileCompile() FunctionalOption {
	return func(c *Compiler) error {
		c.useFileCompile = true
		return nil
	}
}

// WithMemoryCompile starts the compiler in memory mode, which is the default.
func WithMemoryCompile() FunctionalOption {
	return func(c *Compiler) error {
		c.useFileCompile = false
		return nil
	}
}

// WithLogHandler creates an option to set the log handler for the compiler.
// This is the preferred option for logging configuration as it provides
// more flexibility through the slog.Handler interface.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(c *Compiler) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.logHandler = handler
		c.logger = nil
		return nil
	}
}

// WithLogger creates an option to set a specific logger for the compiler.
func WithLogger(logger *slog.Logger) FunctionalOption {
	return func(c *Compiler) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		c.logHandler = nil
		return nil
	}
}

// applyDefaults fills in anything the options left unset.
func (c *Compiler) applyDefaults() {
	if c.domain == nil {
		c.domain = domain.Default()
	}
}

// validate checks if the compiler configuration is valid
func (c *Compiler) validate() error {
	if c.engine == nil {
		return ErrEngineNil
	}
	if c.domain == nil {
		return fmt.Errorf("domain must be specified")
	}
	return nil
}
