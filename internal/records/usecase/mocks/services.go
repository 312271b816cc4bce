package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/records/domain"
)

// MockFieldCipher is a mock implementation of FieldCipher for testing.
type MockFieldCipher struct {
	mock.Mock
}

// Encrypt mocks the Encrypt method of FieldCipher.
func (m *MockFieldCipher) Encrypt(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	entityType, field string,
	plaintext any,
) (*domain.EncryptedValue, error) {
	args := m.Called(ctx, kekChain, entityType, field, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EncryptedValue), args.Error(1)
}

// Decrypt mocks the Decrypt method of FieldCipher.
func (m *MockFieldCipher) Decrypt(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	value *domain.EncryptedValue,
) (any, error) {
	args := m.Called(ctx, kekChain, value)
	return args.Get(0), args.Error(1)
}

// EncryptForSearch mocks the EncryptForSearch method of FieldCipher.
func (m *MockFieldCipher) EncryptForSearch(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	entityType, field string,
	value any,
	keyVersion uint,
) ([]byte, error) {
	args := m.Called(ctx, kekChain, entityType, field, value, keyVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockQueryRewriter is a mock implementation of QueryRewriter for testing.
type MockQueryRewriter struct {
	mock.Mock
}

// Rewrite mocks the Rewrite method of QueryRewriter.
func (m *MockQueryRewriter) Rewrite(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	entityType string,
	predicate domain.Predicate,
) (*domain.StorePredicate, error) {
	args := m.Called(ctx, kekChain, entityType, predicate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StorePredicate), args.Error(1)
}
