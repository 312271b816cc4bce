// Package usecase implements the audit trail business logic.
package usecase

import (
	"context"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// AuditRepository defines the persistence interface for audit entries.
// The trail is append-only; there is no update or delete.
type AuditRepository interface {
	Create(ctx context.Context, entry *auditDomain.Entry) error
	List(ctx context.Context, filter auditDomain.Filter, offset, limit int) ([]*auditDomain.Entry, error)
}

// AuditUseCase defines the audit trail operations.
type AuditUseCase interface {
	// Record signs the entry with the active KEK and persists it. Recording
	// is fail-closed: if the entry cannot be signed or stored the caller
	// must abort the audited operation. Returns ErrAuditWriteFailed on any
	// failure.
	Record(ctx context.Context, kekChain *cryptoDomain.KekChain, entry *auditDomain.Entry) error

	// List retrieves audit entries matching the filter, newest first.
	List(ctx context.Context, filter auditDomain.Filter, offset, limit int) ([]*auditDomain.Entry, error)

	// VerifyBatch recomputes the signature of every entry matching the
	// filter, selecting the signing KEK per entry so old entries still
	// verify after KEK rotations. Tampered entries and entries whose KEK
	// is missing from the chain are reported as invalid, not as errors.
	VerifyBatch(ctx context.Context, kekChain *cryptoDomain.KekChain, filter auditDomain.Filter) (*auditDomain.IntegrityReport, error)
}
