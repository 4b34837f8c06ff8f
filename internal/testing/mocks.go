package testing

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRunner is a mock remote command runner.
type MockRunner struct {
	mock.Mock
}

// Run runs command on host.
func (m *MockRunner) Run(ctx context.Context, host, command string) (string, error) {
	args := m.Called(ctx, host, command)
	return args.String(0), args.Error(1)
}

// MockCounter is a mock coordinator worker counter.
type MockCounter struct {
	mock.Mock
}

// Count returns the number of workers the coordinator reports.
func (m *MockCounter) Count(ctx context.Context, retries int) (int, error) {
	args := m.Called(ctx, retries)
	return args.Int(0), args.Error(1)
}

// MockPublicIP is a mock source of the local public address.
type MockPublicIP struct {
	mock.Mock
}

// GetPublicIP returns the public address of this machine.
func (m *MockPublicIP) GetPublicIP(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
