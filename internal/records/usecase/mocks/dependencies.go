// Package mocks provides mock implementations for testing record use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/policy"
	"github.com/allisson/fieldvault/internal/records/domain"
)

// MockRecordRepository is a mock implementation of RecordRepository for testing.
type MockRecordRepository struct {
	mock.Mock
}

// Upsert mocks the Upsert method of RecordRepository.
func (m *MockRecordRepository) Upsert(ctx context.Context, record *domain.Record, entries []domain.SearchEntry) error {
	args := m.Called(ctx, record, entries)
	return args.Error(0)
}

// Get mocks the Get method of RecordRepository.
func (m *MockRecordRepository) Get(ctx context.Context, entityType, entityID string) (*domain.Record, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

// Find mocks the Find method of RecordRepository.
func (m *MockRecordRepository) Find(ctx context.Context, predicate *domain.StorePredicate) ([]*domain.Record, error) {
	args := m.Called(ctx, predicate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Record), args.Error(1)
}

// MockRecordUseCase is a mock implementation of RecordUseCase for testing.
type MockRecordUseCase struct {
	mock.Mock
}

// Put mocks the Put method of RecordUseCase.
func (m *MockRecordUseCase) Put(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	principal policy.Principal,
	entityType, entityID string,
	fields map[string]any,
) error {
	args := m.Called(ctx, kekChain, principal, entityType, entityID, fields)
	return args.Error(0)
}

// Get mocks the Get method of RecordUseCase.
func (m *MockRecordUseCase) Get(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	principal policy.Principal,
	entityType, entityID string,
) (*domain.FilteredRecord, error) {
	args := m.Called(ctx, kekChain, principal, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FilteredRecord), args.Error(1)
}

// Find mocks the Find method of RecordUseCase.
func (m *MockRecordUseCase) Find(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	principal policy.Principal,
	entityType string,
	predicate domain.Predicate,
) ([]*domain.FilteredRecord, error) {
	args := m.Called(ctx, kekChain, principal, entityType, predicate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FilteredRecord), args.Error(1)
}

// RotateFieldKey mocks the RotateFieldKey method of RecordUseCase.
func (m *MockRecordUseCase) RotateFieldKey(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	principal policy.Principal,
	alias string,
) (uint, error) {
	args := m.Called(ctx, kekChain, principal, alias)
	return uint(args.Int(0)), args.Error(1)
}

// MockAuditUseCase is a mock implementation of the audit use case for testing.
type MockAuditUseCase struct {
	mock.Mock
}

// Record mocks the Record method of AuditUseCase.
func (m *MockAuditUseCase) Record(ctx context.Context, kekChain *cryptoDomain.KekChain, entry *auditDomain.Entry) error {
	args := m.Called(ctx, kekChain, entry)
	return args.Error(0)
}

// List mocks the List method of AuditUseCase.
func (m *MockAuditUseCase) List(
	ctx context.Context,
	filter auditDomain.Filter,
	offset, limit int,
) ([]*auditDomain.Entry, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.Entry), args.Error(1)
}

// VerifyBatch mocks the VerifyBatch method of AuditUseCase.
func (m *MockAuditUseCase) VerifyBatch(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	filter auditDomain.Filter,
) (*auditDomain.IntegrityReport, error) {
	args := m.Called(ctx, kekChain, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.IntegrityReport), args.Error(1)
}

// MockFieldKeyUseCase is a mock implementation of the field key use case for testing.
type MockFieldKeyUseCase struct {
	mock.Mock
}

// GetOrCreate mocks the GetOrCreate method of FieldKeyUseCase.
func (m *MockFieldKeyUseCase) GetOrCreate(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	alias string,
	alg cryptoDomain.Algorithm,
) (*cryptoDomain.FieldKey, error) {
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
func (m *MockFieldKeyUseCase) Rotate(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	alias string,
	alg cryptoDomain.Algorithm,
) (*cryptoDomain.FieldKey, error) {
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
func (m *MockFieldKeyUseCase) Rewrap(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	newKekID uuid.UUID,
	batchSize int,
) (int, error) {
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
