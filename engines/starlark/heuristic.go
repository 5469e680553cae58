package starlark

import (
	"regexp"
	"strings"

	"go.starlark.net/syntax"
)

var defPattern = regexp.MustCompile(`(?m)^def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// inferMethodName returns the first top-level def whose name does not start
// with an underscore. Scripts that do not parse fall back to a line scan.
func inferMethodName(script string) string {
	f, err := fileOptions().Parse("", script, 0)
	if err != nil {
		for _, m := range defPattern.FindAllStringSubmatch(script, -1) {
			if !strings.HasPrefix(m[1], "_") {
				return m[1]
			}
		}
		return ""
	}

	for _, stmt := range f.Stmts {
		if def, ok := stmt.(*syntax.DefStmt); ok && !strings.HasPrefix(def.Name.Name, "_") {
			return def.Name.Name
		}
	}
	return ""
}
