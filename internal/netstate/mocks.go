package netstate

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockManager is a mock implementation of the Manager interface.
type MockManager struct {
	mock.Mock
}

func (m *MockManager) CreateNamespace(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockManager) RemoveNamespace(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockManager) ListNamespaces() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockManager) NamespaceExists(name string) (bool, error) {
	args := m.Called(name)
	return args.Bool(0), args.Error(1)
}

func (m *MockManager) ListInterfaces(ns string) ([]Interface, error) {
	args := m.Called(ns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Interface), args.Error(1)
}

func (m *MockManager) DeviceNames(ns string) ([]string, error) {
	args := m.Called(ns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockManager) CreateInterface(ns string, req InterfaceRequest) (*Interface, error) {
	args := m.Called(ns, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Interface), args.Error(1)
}

func (m *MockManager) DeleteInterface(ns, name string) error {
	args := m.Called(ns, name)
	return args.Error(0)
}

func (m *MockManager) SetInterfaceUp(ns, name string) error {
	args := m.Called(ns, name)
	return args.Error(0)
}

func (m *MockManager) ListAddresses(ns, device string) ([]Address, error) {
	args := m.Called(ns, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Address), args.Error(1)
}

func (m *MockManager) AddAddress(ns, device string, req AddressRequest) error {
	args := m.Called(ns, device, req)
	return args.Error(0)
}

func (m *MockManager) DeleteAddress(ns, device string, req AddressRequest) error {
	args := m.Called(ns, device, req)
	return args.Error(0)
}

func (m *MockManager) ListRules(ns string, family int) ([]Rule, error) {
	args := m.Called(ns, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Rule), args.Error(1)
}

func (m *MockManager) AddRule(ns string, spec RuleSpec) error {
	args := m.Called(ns, spec)
	return args.Error(0)
}

func (m *MockManager) DeleteRule(ns string, spec RuleSpec) error {
	args := m.Called(ns, spec)
	return args.Error(0)
}

func (m *MockManager) Watch(ctx context.Context, ns string) (<-chan Event, error) {
	args := m.Called(ctx, ns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan Event), args.Error(1)
}

func (m *MockManager) Close() error {
	args := m.Called()
	return args.Error(0)
}
