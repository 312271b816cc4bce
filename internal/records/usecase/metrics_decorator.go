package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/metrics"
	"github.com/allisson/fieldvault/internal/policy"
	"github.com/allisson/fieldvault/internal/records/domain"
)

// recordUseCaseWithMetrics decorates RecordUseCase with metrics instrumentation.
type recordUseCaseWithMetrics struct {
	next    RecordUseCase
	metrics metrics.BusinessMetrics
}

// NewRecordUseCaseWithMetrics wraps a RecordUseCase with metrics recording.
func NewRecordUseCaseWithMetrics(useCase RecordUseCase, m metrics.BusinessMetrics) RecordUseCase {
	return &recordUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (r *recordUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "records", operation, status)
	r.metrics.RecordDuration(ctx, "records", operation, time.Since(start), status)
}

// Put records metrics for record write operations.
func (r *recordUseCaseWithMetrics) Put(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	principal policy.Principal,
	entityType, entityID string,
	fields map[string]any,
) error {
	start := time.Now()
	err := r.next.Put(ctx, kekChain, principal, entityType, entityID, fields)
	r.record(ctx, "record_put", start, err)
	return err
}

// Get records metrics for record retrieval operations.
func (r *recordUseCaseWithMetrics) Get(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	principal policy.Principal,
	entityType, entityID string,
) (*domain.FilteredRecord, error) {
	start := time.Now()
	filtered, err := r.next.Get(ctx, kekChain, principal, entityType, entityID)
	r.record(ctx, "record_get", start, err)
	return filtered, err
}

// Find records metrics for record search operations.
func (r *recordUseCaseWithMetrics) Find(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	principal policy.Principal,
	entityType string,
	predicate domain.Predicate,
) ([]*domain.FilteredRecord, error) {
	start := time.Now()
	results, err := r.next.Find(ctx, kekChain, principal, entityType, predicate)
	r.record(ctx, "record_find", start, err)
	return results, err
}

// RotateFieldKey records metrics for field key rotation operations.
func (r *recordUseCaseWithMetrics) RotateFieldKey(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	principal policy.Principal,
	alias string,
) (uint, error) {
	start := time.Now()
	version, err := r.next.RotateFieldKey(ctx, kekChain, principal, alias)
	r.record(ctx, "field_key_rotate", start, err)
	return version, err
}
