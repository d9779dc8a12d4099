package kv

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of Store.
type MockStore struct {
	mock.Mock
}

// Get is the mock implementation of Store.Get.
func (m *MockStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1) //nolint:wrapcheck
}

// Set is the mock implementation of Store.Set.
func (m *MockStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0) //nolint:wrapcheck
}
