// Package mocks provides mock implementations for testing crypto use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// MockKekRepository is a mock implementation of KekRepository for testing.
type MockKekRepository struct {
	mock.Mock
}

// Create mocks the Create method of KekRepository.
func (m *MockKekRepository) Create(ctx context.Context, kek *cryptoDomain.Kek) error {
	args := m.Called(ctx, kek)
	return args.Error(0)
}

// Update mocks the Update method of KekRepository.
func (m *MockKekRepository) Update(ctx context.Context, kek *cryptoDomain.Kek) error {
	args := m.Called(ctx, kek)
	return args.Error(0)
}

// List mocks the List method of KekRepository.
func (m *MockKekRepository) List(ctx context.Context) ([]*cryptoDomain.Kek, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cryptoDomain.Kek), args.Error(1)
}

// MockFieldKeyRepository is a mock implementation of FieldKeyRepository for testing.
type MockFieldKeyRepository struct {
	mock.Mock
}

// Create mocks the Create method of FieldKeyRepository.
func (m *MockFieldKeyRepository) Create(ctx context.Context, fieldKey *cryptoDomain.FieldKey) error {
	args := m.Called(ctx, fieldKey)
	return args.Error(0)
}

// GetActive mocks the GetActive method of FieldKeyRepository.
func (m *MockFieldKeyRepository) GetActive(ctx context.Context, alias string) (*cryptoDomain.FieldKey, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.FieldKey), args.Error(1)
}

// Get mocks the Get method of FieldKeyRepository.
func (m *MockFieldKeyRepository) Get(ctx context.Context, alias string, version uint) (*cryptoDomain.FieldKey, error) {
	args := m.Called(ctx, alias, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.FieldKey), args.Error(1)
}

// ListByAlias mocks the ListByAlias method of FieldKeyRepository.
func (m *MockFieldKeyRepository) ListByAlias(ctx context.Context, alias string) ([]*cryptoDomain.FieldKey, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cryptoDomain.FieldKey), args.Error(1)
}

// Update mocks the Update method of FieldKeyRepository.
func (m *MockFieldKeyRepository) Update(ctx context.Context, fieldKey *cryptoDomain.FieldKey) error {
	args := m.Called(ctx, fieldKey)
	return args.Error(0)
}

// GetBatchNotKekID mocks the GetBatchNotKekID method of FieldKeyRepository.
func (m *MockFieldKeyRepository) GetBatchNotKekID(ctx context.Context, kekID uuid.UUID, limit int) ([]*cryptoDomain.FieldKey, error) {
	args := m.Called(ctx, kekID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cryptoDomain.FieldKey), args.Error(1)
}
