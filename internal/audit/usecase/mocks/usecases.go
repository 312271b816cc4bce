package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// MockAuditUseCase is a mock implementation of AuditUseCase for testing.
type MockAuditUseCase struct {
	mock.Mock
}

// Record mocks the Record method of AuditUseCase.
func (m *MockAuditUseCase) Record(ctx context.Context, kekChain *cryptoDomain.KekChain, entry *auditDomain.Entry) error {
	args := m.Called(ctx, kekChain, entry)
	return args.Error(0)
}

// List mocks the List method of AuditUseCase.
func (m *MockAuditUseCase) List(ctx context.Context, filter auditDomain.Filter, offset, limit int) ([]*auditDomain.Entry, error) {
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
