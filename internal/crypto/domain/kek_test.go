package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKekChain(t *testing.T) {
	newKek := &Kek{
		ID:       uuid.Must(uuid.NewV7()),
		Version:  2,
		Key:      []byte("new-key-material-new-key-material"),
		IsActive: true,
	}
	oldKek := &Kek{
		ID:      uuid.Must(uuid.NewV7()),
		Version: 1,
		Key:     []byte("old-key-material-old-key-material"),
	}

	chain := NewKekChain([]*Kek{newKek, oldKek})

	t.Run("active KEK is the newest", func(t *testing.T) {
		assert.Equal(t, newKek.ID, chain.ActiveKekID())
	})

	t.Run("get by ID", func(t *testing.T) {
		got, ok := chain.Get(oldKek.ID)
		require.True(t, ok)
		assert.Equal(t, uint(1), got.Version)

		_, ok = chain.Get(uuid.New())
		assert.False(t, ok)
	})

	t.Run("close zeroes key material", func(t *testing.T) {
		chain.Close()
		assert.Equal(t, uuid.Nil, chain.ActiveKekID())
		assert.Equal(t, make([]byte, len(newKek.Key)), newKek.Key)
		assert.Equal(t, make([]byte, len(oldKek.Key)), oldKek.Key)
	})
}

func TestFieldKeyIsRetired(t *testing.T) {
	fk := &FieldKey{Alias: "patient.ssn", Version: 1}
	assert.False(t, fk.IsRetired())

	now := fk.CreatedAt
	fk.RetiredAt = &now
	assert.True(t, fk.IsRetired())
}
