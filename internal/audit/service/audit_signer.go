// Package service implements audit entry signing.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// Signer produces and verifies HMAC signatures over audit entries.
type Signer interface {
	// Sign returns the 32-byte HMAC-SHA256 signature of the entry, keyed
	// with a signing key derived from the given KEK material.
	Sign(kekKey []byte, entry *auditDomain.Entry) ([]byte, error)

	// Verify recomputes the signature and compares it in constant time.
	// Returns ErrSignatureInvalid on mismatch.
	Verify(kekKey []byte, entry *auditDomain.Entry) error
}

type auditSigner struct{}

// NewAuditSigner creates an HMAC-based audit entry signer using HKDF-SHA256
// for key derivation and HMAC-SHA256 for signature generation.
func NewAuditSigner() Signer {
	return &auditSigner{}
}

// deriveSigningKey derives a 32-byte signing key from KEK material, keeping
// signing usage separated from encryption usage. The info label is versioned
// for future algorithm changes.
func (a *auditSigner) deriveSigningKey(kekKey []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, kekKey, nil, []byte("audit-entry-signing-v1"))

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize converts an entry to its canonical byte representation.
// Variable-length fields are length-prefixed so no two distinct entries share
// an encoding.
func (a *auditSigner) canonicalize(entry *auditDomain.Entry) ([]byte, error) {
	buf := make([]byte, 0, 1024)

	buf = append(buf, entry.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(entry.PrincipalID))
	buf = appendLengthPrefixed(buf, []byte(entry.Action))
	buf = appendLengthPrefixed(buf, []byte(entry.EntityType))
	buf = appendLengthPrefixed(buf, []byte(entry.EntityID))

	if entry.Fields != nil {
		fieldsBytes, err := json.Marshal(entry.Fields)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal fields: %w", err)
		}
		buf = appendLengthPrefixed(buf, fieldsBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = appendLengthPrefixed(buf, []byte(entry.Outcome))

	if entry.Metadata != nil {
		metadataBytes, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadataBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(entry.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by
// data. Panics if data exceeds uint32 max to prevent integer overflow.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	dataLen := len(data)
	if dataLen > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(dataLen))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

func (a *auditSigner) Sign(kekKey []byte, entry *auditDomain.Entry) ([]byte, error) {
	signingKey, err := a.deriveSigningKey(kekKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer cryptoDomain.Zero(signingKey)

	canonical, err := a.canonicalize(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize entry: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

func (a *auditSigner) Verify(kekKey []byte, entry *auditDomain.Entry) error {
	expected, err := a.Sign(kekKey, entry)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(entry.Signature, expected) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}
