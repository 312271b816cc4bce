package policy

import (
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

// ErrAccessDenied is returned when an operation as a whole is unauthorized,
// such as writing a field the principal may not write or searching on a field
// the principal may not read. Per-field read denials do not produce this
// error; they surface as withheld fields in the projection instead.
var ErrAccessDenied = apperrors.Wrap(apperrors.ErrForbidden, "access denied")
