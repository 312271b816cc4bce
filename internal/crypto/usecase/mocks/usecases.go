package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// MockKekUseCase is a mock implementation of KekUseCase for testing.
type MockKekUseCase struct {
	mock.Mock
}

// Create mocks the Create method of KekUseCase.
func (m *MockKekUseCase) Create(ctx context.Context, masterKeyChain *cryptoDomain.MasterKeyChain, alg cryptoDomain.Algorithm) error {
	args := m.Called(ctx, masterKeyChain, alg)
	return args.Error(0)
}

// Rotate mocks the Rotate method of KekUseCase.
func (m *MockKekUseCase) Rotate(ctx context.Context, masterKeyChain *cryptoDomain.MasterKeyChain, alg cryptoDomain.Algorithm) error {
	args := m.Called(ctx, masterKeyChain, alg)
	return args.Error(0)
}

// Unwrap mocks the Unwrap method of KekUseCase.
func (m *MockKekUseCase) Unwrap(ctx context.Context, masterKeyChain *cryptoDomain.MasterKeyChain) (*cryptoDomain.KekChain, error) {
	args := m.Called(ctx, masterKeyChain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.KekChain), args.Error(1)
}

// MockFieldKeyUseCase is a mock implementation of FieldKeyUseCase for testing.
type MockFieldKeyUseCase struct {
	mock.Mock
}

// GetOrCreate mocks the GetOrCreate method of FieldKeyUseCase.
func (m *MockFieldKeyUseCase) GetOrCreate(ctx context.Context, kekChain *cryptoDomain.KekChain, alias string, alg cryptoDomain.Algorithm) (*cryptoDomain.FieldKey, error) {
	args := m.Called(ctx, kekChain, alias, alg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.FieldKey), args.Error(1)
}

// Get mocks the Get method of FieldKeyUseCase.
func (m *MockFieldKeyUseCase) Get(ctx context.Context, alias string, version uint) (*cryptoDomain.FieldKey, error) {
	args := m.Called(ctx, alias, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.FieldKey), args.Error(1)
}

// Rotate mocks the Rotate method of FieldKeyUseCase.
func (m *MockFieldKeyUseCase) Rotate(ctx context.Context, kekChain *cryptoDomain.KekChain, alias string, alg cryptoDomain.Algorithm) (*cryptoDomain.FieldKey, error) {
	args := m.Called(ctx, kekChain, alias, alg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.FieldKey), args.Error(1)
}

// ListVersions mocks the ListVersions method of FieldKeyUseCase.
func (m *MockFieldKeyUseCase) ListVersions(ctx context.Context, alias string) ([]*cryptoDomain.FieldKey, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cryptoDomain.FieldKey), args.Error(1)
}

// Rewrap mocks the Rewrap method of FieldKeyUseCase.
func (m *MockFieldKeyUseCase) Rewrap(ctx context.Context, kekChain *cryptoDomain.KekChain, newKekID uuid.UUID, batchSize int) (int, error) {
	args := m.Called(ctx, kekChain, newKekID, batchSize)
	return args.Int(0), args.Error(1)
}

// Unwrap mocks the Unwrap method of FieldKeyUseCase.
func (m *MockFieldKeyUseCase) Unwrap(fieldKey *cryptoDomain.FieldKey, kekChain *cryptoDomain.KekChain) ([]byte, error) {
	args := m.Called(fieldKey, kekChain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
