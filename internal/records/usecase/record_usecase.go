package usecase

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	auditUsecase "github.com/allisson/fieldvault/internal/audit/usecase"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoUsecase "github.com/allisson/fieldvault/internal/crypto/usecase"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	"github.com/allisson/fieldvault/internal/policy"
	"github.com/allisson/fieldvault/internal/records/domain"
	recordsService "github.com/allisson/fieldvault/internal/records/service"
	"github.com/allisson/fieldvault/internal/schema"
)

// recordUseCase implements the RecordUseCase interface.
type recordUseCase struct {
	txManager          database.TxManager
	recordRepo         RecordRepository
	registry           *schema.Registry
	policyTable        *policy.Table
	cipher             recordsService.FieldCipher
	rewriter           recordsService.QueryRewriter
	auditUseCase       auditUsecase.AuditUseCase
	fieldKeyUseCase    cryptoUsecase.FieldKeyUseCase
	alg                cryptoDomain.Algorithm
	findMaxConcurrency int
}

// sortedFieldNames returns the field names of a document in a stable order,
// so policy evaluation and audit field lists are deterministic.
func sortedFieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Put encrypts the classified fields of the document and stores it together
// with its search index entries in one transaction.
//
// Write authorization is all-or-nothing: a denial on any field rejects the
// whole document, and the denial itself is audited. The audit entry for an
// accepted write commits in the same transaction as the record, so a write
// that cannot be audited does not happen.
func (r *recordUseCase) Put(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	principal policy.Principal,
	entityType, entityID string,
	fields map[string]any,
) error {
	names := sortedFieldNames(fields)

	fieldAccesses := make([]auditDomain.FieldAccess, 0, len(names))
	denied := false
	for _, name := range names {
		outcome := auditDomain.OutcomeAllow
		if r.policyTable.Evaluate(principal.Roles, entityType, name, policy.ActionWrite) == policy.Deny {
			outcome = auditDomain.OutcomeDeny
			denied = true
		}
		fieldAccesses = append(fieldAccesses, auditDomain.FieldAccess{Field: name, Outcome: outcome})
	}

	if denied {
		entry := &auditDomain.Entry{
			PrincipalID: principal.ID,
			Action:      auditDomain.ActionWrite,
			EntityType:  entityType,
			EntityID:    entityID,
			Fields:      fieldAccesses,
			Outcome:     auditDomain.OutcomeDeny,
		}
		if err := r.auditUseCase.Record(ctx, kekChain, entry); err != nil {
			return err
		}
		return policy.ErrAccessDenied
	}

	document := make(map[string]any, len(fields))
	var searchEntries []domain.SearchEntry

	for _, name := range names {
		value := fields[name]

		def, ok := r.registry.Lookup(entityType, name)
		if !ok || !def.Encrypted() {
			document[name] = value
			continue
		}

		envelope, err := r.cipher.Encrypt(ctx, kekChain, entityType, name, value)
		if err != nil {
			return err
		}
		document[name] = envelope

		// Null values are stored but never indexed.
		if !def.Searchable() || envelope.IsNull() {
			continue
		}

		searchValue, err := r.cipher.EncryptForSearch(ctx, kekChain, entityType, name, value, envelope.KeyVersion)
		if err != nil {
			return err
		}
		searchEntries = append(searchEntries, domain.SearchEntry{
			EntityType:  entityType,
			EntityID:    entityID,
			FieldName:   name,
			KeyVersion:  envelope.KeyVersion,
			SearchValue: searchValue,
		})
	}

	record := &domain.Record{
		EntityType: entityType,
		EntityID:   entityID,
		Document:   document,
	}

	return r.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := r.recordRepo.Upsert(ctx, record, searchEntries); err != nil {
			return err
		}

		entry := &auditDomain.Entry{
			PrincipalID: principal.ID,
			Action:      auditDomain.ActionWrite,
			EntityType:  entityType,
			EntityID:    entityID,
			Fields:      fieldAccesses,
			Outcome:     auditDomain.OutcomeAllow,
		}
		return r.auditUseCase.Record(ctx, kekChain, entry)
	})
}

// decryptDocument decrypts every envelope in a stored document, leaving
// plaintext fields untouched.
func (r *recordUseCase) decryptDocument(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	document map[string]any,
) (map[string]any, error) {
	decrypted := make(map[string]any, len(document))

	for name, value := range document {
		envelope, ok := value.(*domain.EncryptedValue)
		if !ok {
			decrypted[name] = value
			continue
		}

		plaintext, err := r.cipher.Decrypt(ctx, kekChain, envelope)
		if err != nil {
			return nil, apperrors.Wrapf(err, "field %q", name)
		}
		decrypted[name] = plaintext
	}

	return decrypted, nil
}

// auditedProjection projects a decrypted document through the policy table
// and builds the per-field audit outcomes: allow for returned fields, deny
// for withheld ones.
func (r *recordUseCase) auditedProjection(
	decrypted map[string]any,
	entityType string,
	principal policy.Principal,
) (*policy.Projection, []auditDomain.FieldAccess) {
	projection := r.policyTable.Project(decrypted, entityType, principal.Roles)

	fieldAccesses := make([]auditDomain.FieldAccess, 0, len(decrypted))
	for _, name := range sortedFieldNames(projection.Fields) {
		fieldAccesses = append(fieldAccesses, auditDomain.FieldAccess{Field: name, Outcome: auditDomain.OutcomeAllow})
	}
	for _, name := range projection.Withheld {
		fieldAccesses = append(fieldAccesses, auditDomain.FieldAccess{Field: name, Outcome: auditDomain.OutcomeDeny})
	}

	return projection, fieldAccesses
}

// Get retrieves a record, decrypts it and projects it through the policy
// table. The read is audited with the per-field outcomes before any data is
// returned; a failed audit write withholds the data.
//
// A missing record returns ErrRecordNotFound without an audit entry: nothing
// was disclosed.
func (r *recordUseCase) Get(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	principal policy.Principal,
	entityType, entityID string,
) (*domain.FilteredRecord, error) {
	record, err := r.recordRepo.Get(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	decrypted, err := r.decryptDocument(ctx, kekChain, record.Document)
	if err != nil {
		return nil, err
	}

	projection, fieldAccesses := r.auditedProjection(decrypted, entityType, principal)

	entry := &auditDomain.Entry{
		PrincipalID: principal.ID,
		Action:      auditDomain.ActionRead,
		EntityType:  entityType,
		EntityID:    entityID,
		Fields:      fieldAccesses,
		Outcome:     auditDomain.OutcomeAllow,
	}
	if err := r.auditUseCase.Record(ctx, kekChain, entry); err != nil {
		return nil, err
	}

	return &domain.FilteredRecord{
		EntityType: entityType,
		EntityID:   entityID,
		Fields:     projection.Fields,
		Withheld:   projection.Withheld,
	}, nil
}

// Find rewrites the predicate into ciphertext search terms, matches against
// the index and decrypts and projects the results concurrently. Every matched
// entity gets its own search audit entry with per-field outcomes; all entries
// must commit before results are returned.
func (r *recordUseCase) Find(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	principal policy.Principal,
	entityType string,
	predicate domain.Predicate,
) ([]*domain.FilteredRecord, error) {
	if r.policyTable.Evaluate(principal.Roles, entityType, predicate.Field, policy.ActionRead) == policy.Deny {
		entry := &auditDomain.Entry{
			PrincipalID: principal.ID,
			Action:      auditDomain.ActionSearch,
			EntityType:  entityType,
			Fields:      []auditDomain.FieldAccess{{Field: predicate.Field, Outcome: auditDomain.OutcomeDeny}},
			Outcome:     auditDomain.OutcomeDeny,
		}
		if err := r.auditUseCase.Record(ctx, kekChain, entry); err != nil {
			return nil, err
		}
		return nil, policy.ErrAccessDenied
	}

	storePredicate, err := r.rewriter.Rewrite(ctx, kekChain, entityType, predicate)
	if err != nil {
		return nil, err
	}

	records, err := r.recordRepo.Find(ctx, storePredicate)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.FilteredRecord, len(records))
	fieldAccesses := make([][]auditDomain.FieldAccess, len(records))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.findMaxConcurrency)

	for i, record := range records {
		group.Go(func() error {
			decrypted, err := r.decryptDocument(groupCtx, kekChain, record.Document)
			if err != nil {
				return err
			}

			projection, accesses := r.auditedProjection(decrypted, entityType, principal)
			results[i] = &domain.FilteredRecord{
				EntityType: record.EntityType,
				EntityID:   record.EntityID,
				Fields:     projection.Fields,
				Withheld:   projection.Withheld,
			}
			fieldAccesses[i] = accesses
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	// One audit entry per matched entity, committed before disclosure.
	for i, result := range results {
		entry := &auditDomain.Entry{
			PrincipalID: principal.ID,
			Action:      auditDomain.ActionSearch,
			EntityType:  entityType,
			EntityID:    result.EntityID,
			Fields:      fieldAccesses[i],
			Outcome:     auditDomain.OutcomeAllow,
		}
		if err := r.auditUseCase.Record(ctx, kekChain, entry); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// RotateFieldKey retires the active key version of an alias and creates the
// next one. Previously written data keeps decrypting under the retired
// versions; only new writes pick up the new one.
func (r *recordUseCase) RotateFieldKey(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	principal policy.Principal,
	alias string,
) (uint, error) {
	fieldKey, err := r.fieldKeyUseCase.Rotate(ctx, kekChain, alias, r.alg)
	if err != nil {
		return 0, err
	}

	entry := &auditDomain.Entry{
		PrincipalID: principal.ID,
		Action:      auditDomain.ActionRotate,
		Outcome:     auditDomain.OutcomeAllow,
		Metadata: map[string]any{
			"key_alias":   alias,
			"new_version": fieldKey.Version,
		},
	}
	if err := r.auditUseCase.Record(ctx, kekChain, entry); err != nil {
		return fieldKey.Version, err
	}

	return fieldKey.Version, nil
}

// NewRecordUseCase creates a new record use case instance.
func NewRecordUseCase(
	txManager database.TxManager,
	recordRepo RecordRepository,
	registry *schema.Registry,
	policyTable *policy.Table,
	cipher recordsService.FieldCipher,
	rewriter recordsService.QueryRewriter,
	auditUseCase auditUsecase.AuditUseCase,
	fieldKeyUseCase cryptoUsecase.FieldKeyUseCase,
	alg cryptoDomain.Algorithm,
	findMaxConcurrency int,
) RecordUseCase {
	return &recordUseCase{
		txManager:          txManager,
		recordRepo:         recordRepo,
		registry:           registry,
		policyTable:        policyTable,
		cipher:             cipher,
		rewriter:           rewriter,
		auditUseCase:       auditUseCase,
		fieldKeyUseCase:    fieldKeyUseCase,
		alg:                alg,
		findMaxConcurrency: findMaxConcurrency,
	}
}
