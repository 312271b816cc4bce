// Package mocks provides mock implementations for testing audit use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
)

// MockAuditRepository is a mock implementation of AuditRepository for testing.
type MockAuditRepository struct {
	mock.Mock
}

// Create mocks the Create method of AuditRepository.
func (m *MockAuditRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// List mocks the List method of AuditRepository.
func (m *MockAuditRepository) List(
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
