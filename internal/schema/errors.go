package schema

import (
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

// ErrUnknownFieldClassification is returned when an encryption operation is
// requested for a field with no registered classification. This is a caller
// bug: unclassified fields must not be routed through the cipher.
var ErrUnknownFieldClassification = apperrors.Wrap(
	apperrors.ErrInvalidInput, "unknown field classification",
)
