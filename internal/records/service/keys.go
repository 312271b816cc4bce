package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// Domain separation labels for keys derived from a field key. Versioned so a
// future derivation change can coexist with stored data.
const (
	deterministicNonceInfo = "deterministic-nonce-v1"
	rangeEncodingInfo      = "range-encoding-v1"
)

// aeadNonceSize is the nonce size shared by AES-256-GCM and
// ChaCha20-Poly1305.
const aeadNonceSize = 12

// deriveSubKey derives a 32-byte purpose-specific key from field key
// material. Derived keys keep the deterministic nonce and range encoding
// domains independent from the AEAD key itself.
func deriveSubKey(fieldKey []byte, info string) ([]byte, error) {
	reader := hkdf.New(sha256.New, fieldKey, nil, []byte(info))
	subKey := make([]byte, cryptoDomain.KeySize)
	if _, err := io.ReadFull(reader, subKey); err != nil {
		return nil, err
	}
	return subKey, nil
}

// deterministicNonce derives the AEAD nonce for deterministic encryption from
// the serialized plaintext. The same plaintext under the same field key
// version always yields the same nonce, therefore the same ciphertext. The
// nonce key is HKDF-derived, so the nonce never reuses across different
// plaintexts except with negligible probability.
func deterministicNonce(fieldKey, serialized []byte) ([]byte, error) {
	nonceKey, err := deriveSubKey(fieldKey, deterministicNonceInfo)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(nonceKey)

	mac := hmac.New(sha256.New, nonceKey)
	mac.Write(serialized)
	return mac.Sum(nil)[:aeadNonceSize], nil
}
