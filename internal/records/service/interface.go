// Package service implements the cipher engine and query rewriter for
// field-level encryption.
//
// The cipher engine encrypts and decrypts individual field values according
// to their registered classification. The query rewriter translates plaintext
// predicates into ciphertext search terms so the store can answer queries
// without ever holding plaintext or keys.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/records/domain"
)

// FieldCipher encrypts and decrypts classified field values.
type FieldCipher interface {
	// Encrypt encrypts a plaintext value under the field's registered
	// classification and the active key version of its alias, creating the
	// key lazily on first use. A nil plaintext produces a null envelope
	// without invoking the cipher. Fields without a registered encrypted
	// classification are rejected with ErrUnknownFieldClassification.
	Encrypt(ctx context.Context, kekChain *cryptoDomain.KekChain, entityType, field string, plaintext any) (*domain.EncryptedValue, error)

	// Decrypt reverses Encrypt using the key alias and version recorded in
	// the envelope. Retired key versions still decrypt. A missing key fails
	// closed with ErrKeyUnavailable; an authentication failure surfaces as
	// ErrDecryptionFailed and is logged as a security event.
	Decrypt(ctx context.Context, kekChain *cryptoDomain.KekChain, value *domain.EncryptedValue) (any, error)

	// EncryptForSearch produces the search index value for a plaintext under
	// a specific key version: stable ciphertext for deterministic fields,
	// an order-preserving code for range fields. Only searchable modes are
	// accepted.
	EncryptForSearch(ctx context.Context, kekChain *cryptoDomain.KekChain, entityType, field string, value any, keyVersion uint) ([]byte, error)
}

// QueryRewriter translates plaintext predicates into ciphertext store
// predicates. It never decrypts anything.
type QueryRewriter interface {
	// Rewrite validates the predicate against the field's classification and
	// emits one search term per key version of the field's alias, so matches
	// written before a key rotation are still found. Predicates on fields
	// whose mode does not support them are rejected with
	// ErrFieldNotSearchable; there is no plaintext-scan fallback.
	Rewrite(ctx context.Context, kekChain *cryptoDomain.KekChain, entityType string, predicate domain.Predicate) (*domain.StorePredicate, error)
}
