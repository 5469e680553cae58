package starlark

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-scriptbind/artifact"
	"github.com/robbyt/go-scriptbind/diagnostics"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// declaration is a top-level name in the order the script first binds it.
type declaration struct {
	Name   string `msgpack:"name"`
	Line   int    `msgpack:"line"`
	Column int    `msgpack:"column"`
}

// declarations lists top-level bindings in source order. Names bound inside
// top-level if, for and while statements are included.
func declarations(f *syntax.File) []declaration {
	var order []declaration
	seen := make(map[string]bool)

	add := func(id *syntax.Ident) {
		if id == nil || seen[id.Name] {
			return
		}
		seen[id.Name] = true
		order = append(order, declaration{
			Name:   id.Name,
			Line:   int(id.NamePos.Line),
			Column: int(id.NamePos.Col),
		})
	}

	var bindTargets func(e syntax.Expr)
	bindTargets = func(e syntax.Expr) {
		switch e := e.(type) {
		case *syntax.Ident:
			add(e)
		case *syntax.TupleExpr:
			for _, x := range e.List {
				bindTargets(x)
			}
		case *syntax.ListExpr:
			for _, x := range e.List {
				bindTargets(x)
			}
		case *syntax.ParenExpr:
			bindTargets(e.X)
		}
	}

	var walk func(stmts []syntax.Stmt)
	walk = func(stmts []syntax.Stmt) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case *syntax.AssignStmt:
				bindTargets(s.LHS)
			case *syntax.DefStmt:
				add(s.Name)
			case *syntax.IfStmt:
				walk(s.True)
				walk(s.False)
			case *syntax.ForStmt:
				bindTargets(s.Vars)
				walk(s.Body)
			case *syntax.WhileStmt:
				walk(s.Body)
			}
		}
	}
	walk(f.Stmts)
	return order
}

// collectTypes picks the struct and module values out of the frozen globals.
// A module value is named by its module name, a struct by the global holding
// it. Types sharing a name are all kept in declaration order and reported.
func collectTypes(
	file string,
	order []declaration,
	globals starlarkLib.StringDict,
	logger *slog.Logger,
) ([]*Type, []diagnostics.Entry) {
	var (
		types   []*Type
		entries []diagnostics.Entry
	)
	first := make(map[string]declaration)

	for _, d := range order {
		var (
			name  string
			value starlarkLib.HasAttrs
		)
		switch v := globals[d.Name].(type) {
		case *starlarkstruct.Module:
			name, value = v.Name, v
		case *starlarkstruct.Struct:
			name, value = d.Name, v
		default:
			continue
		}

		if prev, dup := first[name]; dup {
			entries = append(entries, diagnostics.Entry{
				Severity: diagnostics.SeverityWarning,
				File:     file,
				Line:     d.Line,
				Column:   d.Column,
				Message: fmt.Sprintf(
					"type %q declared again by %q; %q at line %d is used",
					name, d.Name, prev.Name, prev.Line,
				),
			})
		} else {
			first[name] = d
		}

		types = append(types, &Type{
			name:   name,
			global: d.Name,
			value:  value,
			logger: logger,
		})
	}
	return types, entries
}

// Module is a compiled Starlark script with frozen globals.
type Module struct {
	name         string
	types        []*Type
	globals      starlarkLib.StringDict
	artifactPath string
}

var _ artifact.Module = (*Module)(nil)

func (m *Module) String() string {
	return fmt.Sprintf("starlark.Module{Name: %s, Types: %d}", m.name, len(m.types))
}

func (m *Module) Name() string {
	return m.name
}

// Types returns the declared types in declaration order.
func (m *Module) Types() []artifact.Type {
	out := make([]artifact.Type, len(m.types))
	for i, t := range m.types {
		out[i] = t
	}
	return out
}

// Global returns a top-level value of the script.
func (m *Module) Global(name string) (starlarkLib.Value, bool) {
	v, ok := m.globals[name]
	return v, ok
}

// ArtifactPath is the compiled artifact the module was loaded from, or empty
// for memory compiles.
func (m *Module) ArtifactPath() string {
	return m.artifactPath
}

// Type is a struct or module value declared by a script.
type Type struct {
	name   string
	global string
	value  starlarkLib.HasAttrs
	logger *slog.Logger
}

var (
	_ artifact.Type         = (*Type)(nil)
	_ artifact.MethodLister = (*Type)(nil)
)

func (t *Type) Name() string {
	return t.name
}

// Global is the name of the top-level variable holding the type.
func (t *Type) Global() string {
	return t.global
}

// Method looks up a callable attribute by exact name.
func (t *Type) Method(name string) (artifact.Method, bool) {
	v, err := t.value.Attr(name)
	if err != nil || v == nil {
		return nil, false
	}
	fn, ok := v.(starlarkLib.Callable)
	if !ok {
		return nil, false
	}
	return &Method{
		typeName: t.name,
		name:     name,
		fn:       fn,
		logger:   t.logger,
	}, true
}

// Methods lists the callable attribute names, sorted.
func (t *Type) Methods() []string {
	var names []string
	for _, name := range t.value.AttrNames() {
		if v, err := t.value.Attr(name); err == nil {
			if _, ok := v.(starlarkLib.Callable); ok {
				names = append(names, name)
			}
		}
	}
	return names
}
