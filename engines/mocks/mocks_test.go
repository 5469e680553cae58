package mocks

import (
	"testing"

	"github.com/robbyt/go-scriptbind/artifact"
	"github.com/robbyt/go-scriptbind/engine"
)

// TestMocksImplementInterfaces verifies at compile time that the mocks
// satisfy the interfaces they stand in for.
func TestMocksImplementInterfaces(t *testing.T) {
	t.Parallel()
	var _ engine.Engine = (*Engine)(nil)
	var _ artifact.Module = (*Module)(nil)
	var _ artifact.Type = (*Type)(nil)
	var _ artifact.Method = (*Method)(nil)
}
