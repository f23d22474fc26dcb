package usb

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTransport is a testify mock implementation of Transport.
type MockTransport struct {
	mock.Mock
}

var _ Transport = (*MockTransport)(nil)

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) FindDevice(vendorID, productID uint16) (Device, error) {
	args := m.Called(vendorID, productID)
	if dev, ok := args.Get(0).(Device); ok {
		return dev, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransport) Close() error {
	return m.Called().Error(0)
}

// MockDevice is a testify mock implementation of Device.
type MockDevice struct {
	mock.Mock
}

var _ Device = (*MockDevice)(nil)

func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

func (m *MockDevice) ControlIn(request uint8, value, index uint16, length int) ([]byte, error) {
	args := m.Called(request, value, index, length)
	if buf, ok := args.Get(0).([]byte); ok {
		return buf, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDevice) ControlOut(request uint8, value, index uint16, data []byte) (int, error) {
	args := m.Called(request, value, index, data)
	return args.Int(0), args.Error(1)
}

func (m *MockDevice) Reset() error {
	return m.Called().Error(0)
}

func (m *MockDevice) ActiveInterface() (Interface, error) {
	args := m.Called()
	if intf, ok := args.Get(0).(Interface); ok {
		return intf, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDevice) Close() error {
	return m.Called().Error(0)
}

// MockInterface is a testify mock implementation of Interface.
type MockInterface struct {
	mock.Mock
}

var _ Interface = (*MockInterface)(nil)

func NewMockInterface() *MockInterface {
	return &MockInterface{}
}

func (m *MockInterface) Endpoints() []EndpointDesc {
	args := m.Called()
	if eps, ok := args.Get(0).([]EndpointDesc); ok {
		return eps
	}
	return nil
}

func (m *MockInterface) OutEndpoint(number int) (OutEndpoint, error) {
	args := m.Called(number)
	if ep, ok := args.Get(0).(OutEndpoint); ok {
		return ep, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInterface) InEndpoint(number int) (InEndpoint, error) {
	args := m.Called(number)
	if ep, ok := args.Get(0).(InEndpoint); ok {
		return ep, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInterface) Close() {
	m.Called()
}

// MockOutEndpoint is a testify mock implementation of OutEndpoint.
type MockOutEndpoint struct {
	mock.Mock
}

var _ OutEndpoint = (*MockOutEndpoint)(nil)

func NewMockOutEndpoint() *MockOutEndpoint {
	return &MockOutEndpoint{}
}

func (m *MockOutEndpoint) Write(ctx context.Context, buf []byte) (int, error) {
	args := m.Called(ctx, buf)
	return args.Int(0), args.Error(1)
}

// MockInEndpoint is a testify mock implementation of InEndpoint.
type MockInEndpoint struct {
	mock.Mock
}

var _ InEndpoint = (*MockInEndpoint)(nil)

func NewMockInEndpoint() *MockInEndpoint {
	return &MockInEndpoint{}
}

func (m *MockInEndpoint) Read(ctx context.Context, buf []byte) (int, error) {
	args := m.Called(ctx, buf)
	return args.Int(0), args.Error(1)
}
