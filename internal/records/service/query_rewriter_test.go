package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	"github.com/allisson/fieldvault/internal/records/domain"
)

func TestQueryRewriter_Equality(t *testing.T) {
	ctx := context.Background()
	h := newEngineHarness(t)

	t.Run("equality term matches the stored ciphertext", func(t *testing.T) {
		encrypted, err := h.cipher.Encrypt(ctx, h.kekChain, "patient", "ssn", "123-45-6789")
		require.NoError(t, err)

		store, err := h.rewriter.Rewrite(ctx, h.kekChain, "patient", domain.Equals("ssn", "123-45-6789"))
		require.NoError(t, err)
		assert.Equal(t, "patient", store.EntityType)
		assert.Equal(t, "ssn", store.Field)
		require.Len(t, store.Terms, 1)
		require.Len(t, store.Terms[0].Equals, 1)
		assert.Equal(t, encrypted.Ciphertext, store.Terms[0].Equals[0])
	})

	t.Run("in predicate emits one literal per value", func(t *testing.T) {
		_, err := h.cipher.Encrypt(ctx, h.kekChain, "patient", "ssn", "123-45-6789")
		require.NoError(t, err)

		store, err := h.rewriter.Rewrite(ctx, h.kekChain, "patient", domain.In("ssn", "a", "b", "c"))
		require.NoError(t, err)
		require.Len(t, store.Terms, 1)
		assert.Len(t, store.Terms[0].Equals, 3)
	})

	t.Run("different literals produce different terms", func(t *testing.T) {
		_, err := h.cipher.Encrypt(ctx, h.kekChain, "patient", "ssn", "123-45-6789")
		require.NoError(t, err)

		first, err := h.rewriter.Rewrite(ctx, h.kekChain, "patient", domain.Equals("ssn", "123-45-6789"))
		require.NoError(t, err)
		second, err := h.rewriter.Rewrite(ctx, h.kekChain, "patient", domain.Equals("ssn", "999-99-9999"))
		require.NoError(t, err)
		assert.NotEqual(t, first.Terms[0].Equals[0], second.Terms[0].Equals[0])
	})
}

func TestQueryRewriter_CrossRotationSearch(t *testing.T) {
	ctx := context.Background()
	h := newEngineHarness(t)

	// Value indexed under key version 1.
	oldValue, err := h.cipher.Encrypt(ctx, h.kekChain, "patient", "ssn", "123-45-6789")
	require.NoError(t, err)

	_, err = h.fieldKeys.Rotate(ctx, h.kekChain, "patient.ssn", cryptoDomain.AESGCM)
	require.NoError(t, err)

	// Value indexed under key version 2.
	newValue, err := h.cipher.Encrypt(ctx, h.kekChain, "patient", "ssn", "123-45-6789")
	require.NoError(t, err)

	store, err := h.rewriter.Rewrite(ctx, h.kekChain, "patient", domain.Equals("ssn", "123-45-6789"))
	require.NoError(t, err)
	require.Len(t, store.Terms, 2)

	matched := map[uint][]byte{}
	for _, term := range store.Terms {
		require.Len(t, term.Equals, 1)
		matched[term.KeyVersion] = term.Equals[0]
	}
	assert.Equal(t, oldValue.Ciphertext, matched[1], "rewritten literal must match pre-rotation index entries")
	assert.Equal(t, newValue.Ciphertext, matched[2], "rewritten literal must match post-rotation index entries")
}

func TestQueryRewriter_Range(t *testing.T) {
	ctx := context.Background()
	h := newEngineHarness(t)

	// Create the field key.
	_, err := h.cipher.Encrypt(ctx, h.kekChain, "patient", "date_of_birth", "1980-06-15")
	require.NoError(t, err)

	t.Run("bounds are encoded per version and ordered", func(t *testing.T) {
		store, err := h.rewriter.Rewrite(ctx, h.kekChain, "patient",
			domain.Range("date_of_birth", "1970-01-01", "1990-01-01"))
		require.NoError(t, err)
		require.Len(t, store.Terms, 1)

		term := store.Terms[0]
		require.NotNil(t, term.Low)
		require.NotNil(t, term.High)
		assert.Negative(t, bytes.Compare(term.Low, term.High))

		// A value inside the range encodes between the bounds.
		inside, err := h.cipher.EncryptForSearch(ctx, h.kekChain, "patient", "date_of_birth", "1980-06-15", 1)
		require.NoError(t, err)
		assert.Negative(t, bytes.Compare(term.Low, inside))
		assert.Negative(t, bytes.Compare(inside, term.High))
	})

	t.Run("half-open ranges leave the missing bound nil", func(t *testing.T) {
		store, err := h.rewriter.Rewrite(ctx, h.kekChain, "patient",
			domain.Range("date_of_birth", "1970-01-01", nil))
		require.NoError(t, err)
		require.Len(t, store.Terms, 1)
		assert.NotNil(t, store.Terms[0].Low)
		assert.Nil(t, store.Terms[0].High)
	})

	t.Run("inclusive bounds match equal values", func(t *testing.T) {
		store, err := h.rewriter.Rewrite(ctx, h.kekChain, "patient",
			domain.Range("date_of_birth", "1980-06-15", "1980-06-15"))
		require.NoError(t, err)

		exact, err := h.cipher.EncryptForSearch(ctx, h.kekChain, "patient", "date_of_birth", "1980-06-15", 1)
		require.NoError(t, err)
		assert.Equal(t, store.Terms[0].Low, exact)
		assert.Equal(t, store.Terms[0].High, exact)
	})
}

func TestQueryRewriter_CapabilityBoundaries(t *testing.T) {
	ctx := context.Background()
	h := newEngineHarness(t)

	tests := []struct {
		name      string
		predicate domain.Predicate
	}{
		{"equality on a random field", domain.Equals("medical_notes", "note")},
		{"equality on a range field", domain.Equals("date_of_birth", "1980-06-15")},
		{"range on a deterministic field", domain.Range("ssn", "1", "2")},
		{"range on a random field", domain.Range("medical_notes", "a", "b")},
		{"predicate on a plaintext field", domain.Equals("display_name", "Jane D.")},
		{"predicate on an unregistered field", domain.Equals("shoe_size", 42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.rewriter.Rewrite(ctx, h.kekChain, "patient", tt.predicate)
			assert.ErrorIs(t, err, domain.ErrFieldNotSearchable)
		})
	}
}

func TestQueryRewriter_UnknownOp(t *testing.T) {
	ctx := context.Background()
	h := newEngineHarness(t)

	_, err := h.rewriter.Rewrite(ctx, h.kekChain, "patient", domain.Predicate{Field: "ssn", Op: "regex"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestQueryRewriter_NoKeyVersionsYet(t *testing.T) {
	ctx := context.Background()
	h := newEngineHarness(t)

	// No value was ever written, so the alias has no key versions and the
	// predicate matches nothing.
	store, err := h.rewriter.Rewrite(ctx, h.kekChain, "patient", domain.Equals("ssn", "123-45-6789"))
	require.NoError(t, err)
	assert.Empty(t, store.Terms)
}
