package service

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
)

func testEntry() *auditDomain.Entry {
	return &auditDomain.Entry{
		ID:          uuid.Must(uuid.NewV7()),
		PrincipalID: "user-1",
		Action:      auditDomain.ActionRead,
		EntityType:  "patient",
		EntityID:    "p-1",
		Fields: []auditDomain.FieldAccess{
			{Field: "ssn", Outcome: auditDomain.OutcomeAllow},
			{Field: "medical_notes", Outcome: auditDomain.OutcomeDeny},
		},
		Outcome:   auditDomain.OutcomeAllow,
		Metadata:  map[string]any{"request_id": "r-1"},
		CreatedAt: time.Now().UTC(),
	}
}

func TestAuditSigner(t *testing.T) {
	signer := NewAuditSigner()
	kekKey := make([]byte, 32)
	_, err := rand.Read(kekKey)
	require.NoError(t, err)

	t.Run("sign and verify round trip", func(t *testing.T) {
		entry := testEntry()
		signature, err := signer.Sign(kekKey, entry)
		require.NoError(t, err)
		assert.Len(t, signature, 32)

		entry.Signature = signature
		assert.NoError(t, signer.Verify(kekKey, entry))
	})

	t.Run("signatures are deterministic", func(t *testing.T) {
		entry := testEntry()
		first, err := signer.Sign(kekKey, entry)
		require.NoError(t, err)
		second, err := signer.Sign(kekKey, entry)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("tampering any field invalidates the signature", func(t *testing.T) {
		base := testEntry()
		signature, err := signer.Sign(kekKey, base)
		require.NoError(t, err)

		tampers := map[string]func(*auditDomain.Entry){
			"principal": func(e *auditDomain.Entry) { e.PrincipalID = "user-2" },
			"action":    func(e *auditDomain.Entry) { e.Action = auditDomain.ActionWrite },
			"entity":    func(e *auditDomain.Entry) { e.EntityID = "p-2" },
			"outcome":   func(e *auditDomain.Entry) { e.Outcome = auditDomain.OutcomeDeny },
			"fields":    func(e *auditDomain.Entry) { e.Fields[1].Outcome = auditDomain.OutcomeAllow },
			"metadata":  func(e *auditDomain.Entry) { e.Metadata["request_id"] = "r-2" },
			"timestamp": func(e *auditDomain.Entry) { e.CreatedAt = e.CreatedAt.Add(time.Second) },
		}

		for name, tamper := range tampers {
			t.Run(name, func(t *testing.T) {
				entry := testEntry()
				*entry = *base
				entry.Fields = append([]auditDomain.FieldAccess(nil), base.Fields...)
				entry.Metadata = map[string]any{"request_id": "r-1"}
				entry.Signature = signature
				tamper(entry)
				assert.ErrorIs(t, signer.Verify(kekKey, entry), auditDomain.ErrSignatureInvalid)
			})
		}
	})

	t.Run("verification fails with a different key", func(t *testing.T) {
		entry := testEntry()
		signature, err := signer.Sign(kekKey, entry)
		require.NoError(t, err)
		entry.Signature = signature

		otherKey := make([]byte, 32)
		_, err = rand.Read(otherKey)
		require.NoError(t, err)
		assert.ErrorIs(t, signer.Verify(otherKey, entry), auditDomain.ErrSignatureInvalid)
	})

	t.Run("nil fields and metadata are canonical", func(t *testing.T) {
		entry := testEntry()
		entry.Fields = nil
		entry.Metadata = nil

		signature, err := signer.Sign(kekKey, entry)
		require.NoError(t, err)
		entry.Signature = signature
		assert.NoError(t, signer.Verify(kekKey, entry))
	})
}
