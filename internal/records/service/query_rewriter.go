package service

import (
	"context"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoUsecase "github.com/allisson/fieldvault/internal/crypto/usecase"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	"github.com/allisson/fieldvault/internal/records/domain"
	"github.com/allisson/fieldvault/internal/schema"
)

type queryRewriter struct {
	registry  *schema.Registry
	fieldKeys cryptoUsecase.FieldKeyUseCase
	cipher    FieldCipher
}

func (q *queryRewriter) Rewrite(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	entityType string,
	predicate domain.Predicate,
) (*domain.StorePredicate, error) {
	def, ok := q.registry.Lookup(entityType, predicate.Field)
	if !ok || !def.Encrypted() {
		return nil, apperrors.Wrapf(
			domain.ErrFieldNotSearchable, "%s.%s has no searchable classification",
			entityType, predicate.Field,
		)
	}

	switch predicate.Op {
	case domain.OpEquals, domain.OpIn:
		if def.Mode != schema.ModeDeterministic {
			return nil, apperrors.Wrapf(
				domain.ErrFieldNotSearchable,
				"%s.%s is %s, equality needs %s",
				entityType, predicate.Field, def.Mode, schema.ModeDeterministic,
			)
		}
	case domain.OpRange:
		if def.Mode != schema.ModeRange {
			return nil, apperrors.Wrapf(
				domain.ErrFieldNotSearchable,
				"%s.%s is %s, range needs %s",
				entityType, predicate.Field, def.Mode, schema.ModeRange,
			)
		}
	default:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown predicate op %q", predicate.Op)
	}

	// One term per key version: values indexed before a rotation were
	// encrypted under older versions and must stay findable.
	versions, err := q.fieldKeys.ListVersions(ctx, def.KeyAlias)
	if err != nil {
		return nil, err
	}

	store := &domain.StorePredicate{EntityType: entityType, Field: predicate.Field}

	for _, version := range versions {
		term := domain.SearchTerm{KeyVersion: version.Version}

		if predicate.Op == domain.OpRange {
			if predicate.Low != nil {
				low, err := q.cipher.EncryptForSearch(ctx, kekChain, entityType, predicate.Field, predicate.Low, version.Version)
				if err != nil {
					return nil, err
				}
				term.Low = low
			}
			if predicate.High != nil {
				high, err := q.cipher.EncryptForSearch(ctx, kekChain, entityType, predicate.Field, predicate.High, version.Version)
				if err != nil {
					return nil, err
				}
				term.High = high
			}
		} else {
			for _, literal := range predicate.Values {
				encrypted, err := q.cipher.EncryptForSearch(ctx, kekChain, entityType, predicate.Field, literal, version.Version)
				if err != nil {
					return nil, err
				}
				term.Equals = append(term.Equals, encrypted)
			}
		}

		store.Terms = append(store.Terms, term)
	}

	return store, nil
}

// NewQueryRewriter creates the query rewriter.
func NewQueryRewriter(
	registry *schema.Registry,
	fieldKeys cryptoUsecase.FieldKeyUseCase,
	cipher FieldCipher,
) QueryRewriter {
	return &queryRewriter{
		registry:  registry,
		fieldKeys: fieldKeys,
		cipher:    cipher,
	}
}
