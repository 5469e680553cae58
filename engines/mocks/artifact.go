package mocks

import (
	"reflect"

	"github.com/robbyt/go-scriptbind/artifact"
	"github.com/stretchr/testify/mock"
)

// Module is a mock implementation of artifact.Module.
type Module struct {
	mock.Mock
}

func (m *Module) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *Module) Types() []artifact.Type {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]artifact.Type)
}

// Type is a mock implementation of artifact.Type.
type Type struct {
	mock.Mock
}

func (m *Type) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *Type) Method(name string) (artifact.Method, bool) {
	args := m.Called(name)
	method, ok := args.Get(0).(artifact.Method)
	if !ok {
		return nil, args.Bool(1)
	}
	return method, args.Bool(1)
}

// Method is a mock implementation of artifact.Method.
type Method struct {
	mock.Mock
}

func (m *Method) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *Method) TypeName() string {
	args := m.Called()
	return args.String(0)
}

func (m *Method) Bind(shape reflect.Type, binder any) (reflect.Value, error) {
	args := m.Called(shape, binder)
	v, ok := args.Get(0).(reflect.Value)
	if !ok {
		return reflect.Value{}, args.Error(1)
	}
	return v, args.Error(1)
}

// NewModule creates a mock module named name that declares types.
func NewModule(name string, types ...artifact.Type) *Module {
	m := new(Module)
	m.On("Name").Return(name).Maybe()
	m.On("Types").Return(types).Maybe()
	return m
}

// NewType creates a mock type named name with no methods configured.
func NewType(name string) *Type {
	t := new(Type)
	t.On("Name").Return(name).Maybe()
	return t
}

// NewMethod creates a mock method on typeName.
func NewMethod(typeName, name string) *Method {
	m := new(Method)
	m.On("Name").Return(name).Maybe()
	m.On("TypeName").Return(typeName).Maybe()
	return m
}
