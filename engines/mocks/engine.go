package mocks

import (
	"github.com/robbyt/go-scriptbind/domain"
	"github.com/robbyt/go-scriptbind/engine"
	"github.com/stretchr/testify/mock"
)

// Engine is a mock implementation of engine.Engine for testing purposes.
type Engine struct {
	mock.Mock
}

// MemoryCompile is a mock implementation of the MemoryCompile method.
func (m *Engine) MemoryCompile(script string, dom *domain.Domain) engine.Result {
	args := m.Called(script, dom)
	return args.Get(0).(engine.Result)
}

// FileCompile is a mock implementation of the FileCompile method.
func (m *Engine) FileCompile(script string, dom *domain.Domain) engine.Result {
	args := m.Called(script, dom)
	return args.Get(0).(engine.Result)
}

// InferMethodName is a mock implementation of the InferMethodName method.
func (m *Engine) InferMethodName(script string) string {
	args := m.Called(script)
	return args.String(0)
}
