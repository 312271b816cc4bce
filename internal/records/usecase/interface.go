// Package usecase orchestrates the record pipeline: policy evaluation,
// field encryption, search index maintenance, permission-aware reads and
// audited key rotation.
package usecase

import (
	"context"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/policy"
	"github.com/allisson/fieldvault/internal/records/domain"
)

// RecordRepository defines the persistence interface for records and their
// ciphertext search index.
type RecordRepository interface {
	// Upsert stores a record document and replaces its search index
	// entries. It honors a transaction bound to the context.
	Upsert(ctx context.Context, record *domain.Record, entries []domain.SearchEntry) error

	// Get retrieves a record by entity type and ID. Returns
	// ErrRecordNotFound when no record exists.
	Get(ctx context.Context, entityType, entityID string) (*domain.Record, error)

	// Find retrieves the records whose search index matches the predicate.
	Find(ctx context.Context, predicate *domain.StorePredicate) ([]*domain.Record, error)
}

// RecordUseCase defines the record operations exposed to callers. Every
// operation evaluates the policy table for the given principal and writes an
// audit entry; an operation whose audit entry cannot be written fails.
type RecordUseCase interface {
	// Put encrypts the classified fields of the document and stores it
	// together with its search index entries, atomically. A write denial on
	// any field rejects the whole document.
	Put(ctx context.Context, kekChain *cryptoDomain.KekChain, principal policy.Principal, entityType, entityID string, fields map[string]any) error

	// Get retrieves a record, decrypts its fields and projects it through
	// the policy table. Fields the principal may not read are omitted and
	// listed as withheld.
	Get(ctx context.Context, kekChain *cryptoDomain.KekChain, principal policy.Principal, entityType, entityID string) (*domain.FilteredRecord, error)

	// Find rewrites the plaintext predicate into ciphertext search terms,
	// matches against the index and returns the decrypted, projected
	// results. Predicates on fields the principal may not read are denied.
	Find(ctx context.Context, kekChain *cryptoDomain.KekChain, principal policy.Principal, entityType string, predicate domain.Predicate) ([]*domain.FilteredRecord, error)

	// RotateFieldKey retires the active key version of an alias, creates
	// the next one and audits the rotation. Returns the new version.
	RotateFieldKey(ctx context.Context, kekChain *cryptoDomain.KekChain, principal policy.Principal, alias string) (uint, error)
}
