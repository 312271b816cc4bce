package domain

import (
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

var (
	// ErrRecordNotFound is returned when a record does not exist for the
	// given entity type and ID.
	ErrRecordNotFound = apperrors.Wrap(apperrors.ErrNotFound, "record not found")

	// ErrFieldNotSearchable is returned when a predicate targets a field
	// whose encryption mode does not support it: equality needs a
	// deterministic field, range needs a range field. The engine rejects
	// such queries outright rather than degrading to a full scan.
	ErrFieldNotSearchable = apperrors.Wrap(apperrors.ErrInvalidInput, "field not searchable")

	// ErrValueNotOrderable is returned when a range-mode field receives a
	// value that has no defined ordering (not a number, time, or date).
	ErrValueNotOrderable = apperrors.Wrap(apperrors.ErrInvalidInput, "value not orderable")
)
