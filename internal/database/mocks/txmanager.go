// Package mocks provides mock implementations for testing database consumers.
package mocks

import (
	"context"
)

// MockTxManager is a TxManager for tests that runs the callback without a
// real transaction, so repository mocks observe the same context.
type MockTxManager struct {
	// Err, when set, is returned without invoking the callback.
	Err error
}

// WithTx executes fn directly, or returns Err if configured.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx)
}
