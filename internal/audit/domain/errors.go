package domain

import (
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

var (
	// ErrAuditWriteFailed is returned when an audit entry cannot be signed
	// or persisted. Audit writes are fail-closed: the enclosing operation
	// must abort rather than proceed unaudited.
	ErrAuditWriteFailed = apperrors.Wrap(apperrors.ErrUnavailable, "audit write failed")

	// ErrSignatureInvalid is returned when an audit entry's signature does
	// not match its content, indicating tampering or corruption.
	ErrSignatureInvalid = apperrors.Wrap(apperrors.ErrInvalidInput, "audit signature invalid")
)
