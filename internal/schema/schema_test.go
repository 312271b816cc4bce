package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/fieldvault/internal/errors"
)

func sampleDefs() []FieldDefinition {
	return []FieldDefinition{
		{
			EntityType: "patient",
			Field:      "ssn",
			Mode:       ModeDeterministic,
			KeyAlias:   "patient.ssn",
			ReadRoles:  []string{"doctor", "admin"},
			WriteRoles: []string{"admin"},
		},
		{
			EntityType: "patient",
			Field:      "medical_notes",
			Mode:       ModeRandom,
			KeyAlias:   "patient.medical_notes",
			ReadRoles:  []string{"doctor"},
			WriteRoles: []string{"doctor"},
		},
		{
			EntityType: "patient",
			Field:      "date_of_birth",
			Mode:       ModeRange,
			KeyAlias:   "patient.date_of_birth",
			ReadRoles:  []string{"doctor", "admin"},
			WriteRoles: []string{"admin"},
		},
		{
			EntityType: "patient",
			Field:      "display_name",
			Mode:       ModePlaintext,
			ReadRoles:  []string{"doctor", "admin", "receptionist"},
			WriteRoles: []string{"admin"},
		},
	}
}

func TestNewRegistry(t *testing.T) {
	t.Run("builds a registry from valid definitions", func(t *testing.T) {
		registry, err := NewRegistry(sampleDefs())
		require.NoError(t, err)

		def, ok := registry.Lookup("patient", "ssn")
		require.True(t, ok)
		assert.Equal(t, ModeDeterministic, def.Mode)
		assert.Equal(t, "patient.ssn", def.KeyAlias)
		assert.True(t, def.Encrypted())

		def, ok = registry.Lookup("patient", "display_name")
		require.True(t, ok)
		assert.False(t, def.Encrypted())

		assert.Len(t, registry.Definitions("patient"), 4)
		assert.Len(t, registry.All(), 4)
	})

	t.Run("lookup of an unregistered field misses", func(t *testing.T) {
		registry, err := NewRegistry(sampleDefs())
		require.NoError(t, err)

		_, ok := registry.Lookup("patient", "unknown")
		assert.False(t, ok)
		_, ok = registry.Lookup("invoice", "amount")
		assert.False(t, ok)
		assert.Nil(t, registry.Definitions("invoice"))
	})

	t.Run("rejects duplicate definitions", func(t *testing.T) {
		defs := sampleDefs()
		defs = append(defs, defs[0])
		_, err := NewRegistry(defs)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("rejects an encrypted field without a key alias", func(t *testing.T) {
		_, err := NewRegistry([]FieldDefinition{{
			EntityType: "patient",
			Field:      "ssn",
			Mode:       ModeDeterministic,
		}})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("rejects an unknown mode", func(t *testing.T) {
		_, err := NewRegistry([]FieldDefinition{{
			EntityType: "patient",
			Field:      "ssn",
			Mode:       Mode("homomorphic"),
			KeyAlias:   "patient.ssn",
		}})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("rejects missing entity type or field name", func(t *testing.T) {
		_, err := NewRegistry([]FieldDefinition{{Field: "ssn"}})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		_, err = NewRegistry([]FieldDefinition{{EntityType: "patient"}})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads definitions from a json file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.json")
		content := `[
			{
				"entity_type": "patient",
				"field": "ssn",
				"mode": "deterministic",
				"key_alias": "patient.ssn",
				"read_roles": ["doctor"],
				"write_roles": ["admin"]
			}
		]`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		registry, err := Load(path)
		require.NoError(t, err)

		def, ok := registry.Lookup("patient", "ssn")
		require.True(t, ok)
		assert.Equal(t, []string{"doctor"}, def.ReadRoles)
	})

	t.Run("fails on a missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})

	t.Run("fails on malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		_, err := Load(path)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}
