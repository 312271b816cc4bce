package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	auditService "github.com/allisson/fieldvault/internal/audit/service"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

// verifyBatchSize is the page size used when verifying audit entries.
const verifyBatchSize = 500

// auditUseCase implements the AuditUseCase interface.
type auditUseCase struct {
	auditRepo AuditRepository
	signer    auditService.Signer
	logger    *slog.Logger
}

// Record signs the entry with the chain's active KEK and persists it.
//
// The entry's ID, CreatedAt and KekID are assigned here so callers only
// describe what happened. Any failure, including a missing or unwrapped
// active KEK, yields ErrAuditWriteFailed: an operation that cannot be
// audited must not proceed.
func (a *auditUseCase) Record(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	entry *auditDomain.Entry,
) error {
	entry.ID = uuid.Must(uuid.NewV7())
	entry.CreatedAt = time.Now().UTC()
	entry.KekID = kekChain.ActiveKekID()

	kek, ok := kekChain.Get(entry.KekID)
	if !ok || len(kek.Key) == 0 {
		return apperrors.Wrapf(auditDomain.ErrAuditWriteFailed, "no active kek available for signing")
	}

	signature, err := a.signer.Sign(kek.Key, entry)
	if err != nil {
		return apperrors.Wrapf(auditDomain.ErrAuditWriteFailed, "failed to sign entry: %v", err)
	}
	entry.Signature = signature

	if err := a.auditRepo.Create(ctx, entry); err != nil {
		a.logger.ErrorContext(ctx, "audit entry write failed",
			slog.String("principal_id", entry.PrincipalID),
			slog.String("action", string(entry.Action)),
			slog.String("error", err.Error()),
		)
		return apperrors.Wrapf(auditDomain.ErrAuditWriteFailed, "failed to persist entry: %v", err)
	}

	return nil
}

// List retrieves audit entries matching the filter, newest first.
func (a *auditUseCase) List(
	ctx context.Context,
	filter auditDomain.Filter,
	offset, limit int,
) ([]*auditDomain.Entry, error) {
	return a.auditRepo.List(ctx, filter, offset, limit)
}

// VerifyBatch pages through the entries matching the filter and recomputes
// every signature. The signing KEK is looked up per entry by its recorded
// KekID, so entries written under rotated-out KEKs still verify as long as
// those KEKs remain in the chain.
func (a *auditUseCase) VerifyBatch(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	filter auditDomain.Filter,
) (*auditDomain.IntegrityReport, error) {
	report := &auditDomain.IntegrityReport{}

	for offset := 0; ; offset += verifyBatchSize {
		entries, err := a.auditRepo.List(ctx, filter, offset, verifyBatchSize)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			break
		}

		for _, entry := range entries {
			report.Checked++

			kek, ok := kekChain.Get(entry.KekID)
			if !ok || len(kek.Key) == 0 {
				a.logger.WarnContext(ctx, "audit entry signed by unknown kek",
					slog.String("entry_id", entry.ID.String()),
					slog.String("kek_id", entry.KekID.String()),
				)
				report.Invalid = append(report.Invalid, entry.ID)
				continue
			}

			if err := a.signer.Verify(kek.Key, entry); err != nil {
				report.Invalid = append(report.Invalid, entry.ID)
				continue
			}

			report.Valid++
		}

		if len(entries) < verifyBatchSize {
			break
		}
	}

	return report, nil
}

// NewAuditUseCase creates a new audit use case instance.
func NewAuditUseCase(auditRepo AuditRepository, signer auditService.Signer, logger *slog.Logger) AuditUseCase {
	return &auditUseCase{auditRepo: auditRepo, signer: signer, logger: logger}
}
