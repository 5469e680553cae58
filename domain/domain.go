// Package domain provides the compilation context that compiled modules are
// registered into and looked up from. A Domain is safe for concurrent use and
// is usually shared by many compiler pipelines.
package domain

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/robbyt/go-scriptbind/artifact"
)

// DefaultName is the name of the process-wide shared domain.
const DefaultName = "default"

var defaultDomain = sync.OnceValue(func() *Domain {
	d, _ := New(DefaultName)
	return d
})

// Default returns the process-wide shared domain. Hosts pass it explicitly
// when constructing a compiler; it is also what the compiler binds when no
// domain is provided.
func Default() *Domain {
	return defaultDomain()
}

// closer is implemented by modules that hold engine resources.
type closer interface {
	Close(ctx context.Context) error
}

// Domain registers compiled modules by name.
type Domain struct {
	name string

	mu      sync.RWMutex
	modules []artifact.Module
	byName  map[string]artifact.Module

	seq atomic.Uint64
}

// New creates an empty domain.
func New(name string) (*Domain, error) {
	if name == "" {
		return nil, ErrNameEmpty
	}
	return &Domain{
		name:   name,
		byName: make(map[string]artifact.Module),
	}, nil
}

func (d *Domain) String() string {
	return fmt.Sprintf("domain.Domain{Name: %s, Modules: %d}", d.name, d.Len())
}

// Name returns the domain name.
func (d *Domain) Name() string {
	return d.name
}

// NextID returns a new, domain-unique sequence number, starting at 1.
func (d *Domain) NextID() uint64 {
	return d.seq.Add(1)
}

// Register adds m to the domain. Module names must be unique.
func (d *Domain) Register(m artifact.Module) error {
	if m == nil {
		return ErrModuleNil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byName[m.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, m.Name())
	}
	d.byName[m.Name()] = m
	d.modules = append(d.modules, m)
	return nil
}

// Lookup finds a registered module by name.
func (d *Domain) Lookup(name string) (artifact.Module, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.byName[name]
	return m, ok
}

// Modules returns the registered modules in registration order.
func (d *Domain) Modules() []artifact.Module {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.modules)
}

// Len returns the number of registered modules.
func (d *Domain) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.modules)
}

// Close closes every registered module that holds engine resources and
// empties the domain. Errors from individual modules are joined.
func (d *Domain) Close(ctx context.Context) error {
	d.mu.Lock()
	modules := d.modules
	d.modules = nil
	d.byName = make(map[string]artifact.Module)
	d.mu.Unlock()

	var errz []error
	for _, m := range modules {
		c, ok := m.(closer)
		if !ok {
			continue
		}
		if err := c.Close(ctx); err != nil {
			errz = append(errz, fmt.Errorf("failed to close module %s: %w", m.Name(), err))
		}
	}
	return errors.Join(errz...)
}
