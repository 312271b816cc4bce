package domain

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validKeyBase64() string {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestLoadMasterKeyChainFromEnv(t *testing.T) {
	t.Run("missing MASTER_KEYS", func(t *testing.T) {
		t.Setenv("MASTER_KEYS", "")
		t.Setenv("ACTIVE_MASTER_KEY_ID", "key1")

		_, err := LoadMasterKeyChainFromEnv()
		assert.ErrorIs(t, err, ErrMasterKeysNotSet)
	})

	t.Run("missing ACTIVE_MASTER_KEY_ID", func(t *testing.T) {
		t.Setenv("MASTER_KEYS", "key1:"+validKeyBase64())
		t.Setenv("ACTIVE_MASTER_KEY_ID", "")

		_, err := LoadMasterKeyChainFromEnv()
		assert.ErrorIs(t, err, ErrActiveMasterKeyIDNotSet)
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Setenv("MASTER_KEYS", "no-separator")
		t.Setenv("ACTIVE_MASTER_KEY_ID", "key1")

		_, err := LoadMasterKeyChainFromEnv()
		assert.ErrorIs(t, err, ErrInvalidMasterKeysFormat)
	})

	t.Run("invalid base64", func(t *testing.T) {
		t.Setenv("MASTER_KEYS", "key1:not-base64!!!")
		t.Setenv("ACTIVE_MASTER_KEY_ID", "key1")

		_, err := LoadMasterKeyChainFromEnv()
		assert.ErrorIs(t, err, ErrInvalidMasterKeyBase64)
	})

	t.Run("wrong key size", func(t *testing.T) {
		t.Setenv("MASTER_KEYS", "key1:"+base64.StdEncoding.EncodeToString([]byte("short")))
		t.Setenv("ACTIVE_MASTER_KEY_ID", "key1")

		_, err := LoadMasterKeyChainFromEnv()
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})

	t.Run("active key not in chain", func(t *testing.T) {
		t.Setenv("MASTER_KEYS", "key1:"+validKeyBase64())
		t.Setenv("ACTIVE_MASTER_KEY_ID", "key2")

		_, err := LoadMasterKeyChainFromEnv()
		assert.ErrorIs(t, err, ErrActiveMasterKeyNotFound)
	})

	t.Run("success with multiple keys", func(t *testing.T) {
		t.Setenv("MASTER_KEYS", "key1:"+validKeyBase64()+",key2:"+validKeyBase64())
		t.Setenv("ACTIVE_MASTER_KEY_ID", "key2")

		chain, err := LoadMasterKeyChainFromEnv()
		require.NoError(t, err)
		defer chain.Close()

		assert.Equal(t, "key2", chain.ActiveMasterKeyID())

		key1, ok := chain.Get("key1")
		require.True(t, ok)
		assert.Len(t, key1.Key, 32)

		_, ok = chain.Get("missing")
		assert.False(t, ok)
	})
}

// fakeKeeper simulates a KMS keeper whose Decrypt strips a one-byte prefix.
type fakeKeeper struct {
	fail bool
}

func (f *fakeKeeper) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if f.fail {
		return nil, errors.New("kms unreachable")
	}
	return ciphertext[1:], nil
}

func (f *fakeKeeper) Close() error { return nil }

func TestLoadMasterKeyChainWithKeeper(t *testing.T) {
	wrapped := make([]byte, 33)
	wrapped[0] = 0xFF
	for i := 1; i < len(wrapped); i++ {
		wrapped[i] = byte(i)
	}
	encoded := base64.StdEncoding.EncodeToString(wrapped)

	t.Run("unwraps through keeper", func(t *testing.T) {
		t.Setenv("MASTER_KEYS", "key1:"+encoded)
		t.Setenv("ACTIVE_MASTER_KEY_ID", "key1")

		chain, err := LoadMasterKeyChain(context.Background(), &fakeKeeper{})
		require.NoError(t, err)
		defer chain.Close()

		key, ok := chain.Get("key1")
		require.True(t, ok)
		assert.Len(t, key.Key, 32)
	})

	t.Run("fails closed when keeper fails", func(t *testing.T) {
		t.Setenv("MASTER_KEYS", "key1:"+encoded)
		t.Setenv("ACTIVE_MASTER_KEY_ID", "key1")

		_, err := LoadMasterKeyChain(context.Background(), &fakeKeeper{fail: true})
		assert.ErrorIs(t, err, ErrKeyUnavailable)
	})
}

func TestMasterKeyChainClose(t *testing.T) {
	t.Setenv("MASTER_KEYS", "key1:"+validKeyBase64())
	t.Setenv("ACTIVE_MASTER_KEY_ID", "key1")

	chain, err := LoadMasterKeyChainFromEnv()
	require.NoError(t, err)

	key, ok := chain.Get("key1")
	require.True(t, ok)

	chain.Close()

	assert.Equal(t, "", chain.ActiveMasterKeyID())
	assert.Equal(t, make([]byte, 32), key.Key)
}
