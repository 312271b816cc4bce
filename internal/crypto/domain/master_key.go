package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"
)

// MasterKey represents a cryptographic master key used to encrypt Key Encryption Keys (KEKs).
//
// Master keys are the root of the envelope encryption hierarchy. In production
// they are stored wrapped by a KMS and unwrapped once at startup; in
// development they can be loaded directly from environment variables.
type MasterKey struct {
	ID  string
	Key []byte
}

// MasterKeyChain manages a collection of master keys with one designated as active.
//
// The keychain allows for key rotation by maintaining multiple master keys
// simultaneously. Old keys remain available to decrypt existing KEKs while new
// KEKs are encrypted with the active key.
//
// Thread safety: the keychain uses sync.Map internally for concurrent access.
type MasterKeyChain struct {
	activeID string
	keys     sync.Map
}

// ActiveMasterKeyID returns the ID of the currently active master key.
// The active master key is used to encrypt new Key Encryption Keys.
func (m *MasterKeyChain) ActiveMasterKeyID() string {
	return m.activeID
}

// Get retrieves a master key from the keychain by its ID.
func (m *MasterKeyChain) Get(id string) (*MasterKey, bool) {
	if masterKey, ok := m.keys.Load(id); ok {
		return masterKey.(*MasterKey), ok
	}

	return nil, false
}

// Close securely clears all master keys from memory and resets the keychain.
func (m *MasterKeyChain) Close() {
	m.keys.Range(func(key, value interface{}) bool {
		if masterKey, ok := value.(*MasterKey); ok {
			Zero(masterKey.Key)
		}
		return true
	})
	m.activeID = ""
	m.keys.Clear()
}

// KMSKeeper abstracts the KMS primitive used to unwrap master keys.
// *secrets.Keeper from gocloud.dev implements this interface.
type KMSKeeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// LoadMasterKeyChain loads master keys from environment variables, unwrapping
// each entry through the provided KMS keeper.
//
// Configuration:
//   - MASTER_KEYS: comma-separated list of "id:base64value" entries, where the
//     value is the KMS-wrapped key material (or the raw 32-byte key when keeper
//     is nil, for development and tests)
//   - ACTIVE_MASTER_KEY_ID: ID of the master key used to encrypt new KEKs
//
// Each master key must be exactly 32 bytes after unwrapping. On error the
// partially built keychain is closed so no key material leaks from a failed
// initialization.
func LoadMasterKeyChain(ctx context.Context, keeper KMSKeeper) (*MasterKeyChain, error) {
	raw := os.Getenv("MASTER_KEYS")
	if raw == "" {
		return nil, ErrMasterKeysNotSet
	}

	active := os.Getenv("ACTIVE_MASTER_KEY_ID")
	if active == "" {
		return nil, ErrActiveMasterKeyIDNotSet
	}

	mkc := &MasterKeyChain{activeID: active}

	parts := strings.SplitSeq(raw, ",")
	for part := range parts {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 {
			mkc.Close()
			return nil, fmt.Errorf("%w: %q", ErrInvalidMasterKeysFormat, part)
		}
		id := p[0]
		decoded, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			mkc.Close()
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidMasterKeyBase64, id, err)
		}

		key := decoded
		if keeper != nil {
			key, err = keeper.Decrypt(ctx, decoded)
			if err != nil {
				Zero(decoded)
				mkc.Close()
				return nil, fmt.Errorf("%w: failed to unwrap master key %s", ErrKeyUnavailable, id)
			}
		}

		if len(key) != KeySize {
			Zero(key)
			mkc.Close()
			return nil, fmt.Errorf(
				"%w: master key %s must be %d bytes, got %d",
				ErrInvalidKeySize,
				id,
				KeySize,
				len(key),
			)
		}

		stored := make([]byte, KeySize)
		copy(stored, key)
		mkc.keys.Store(id, &MasterKey{ID: id, Key: stored})
		Zero(key)
	}

	if _, ok := mkc.Get(active); !ok {
		mkc.Close()
		return nil, fmt.Errorf("%w: ACTIVE_MASTER_KEY_ID=%s", ErrActiveMasterKeyNotFound, active)
	}

	return mkc, nil
}

// LoadMasterKeyChainFromEnv loads master keys directly from environment
// variables without KMS unwrapping. Intended for development and tests.
func LoadMasterKeyChainFromEnv() (*MasterKeyChain, error) {
	return LoadMasterKeyChain(context.Background(), nil)
}
