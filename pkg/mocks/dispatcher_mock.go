package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDispatcher is a mock implementation of the protocol.Dispatcher
// interface.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, recipients []string, template string, payload map[string]any) error {
	args := m.Called(ctx, recipients, template, payload)

	return args.Error(0)
}
