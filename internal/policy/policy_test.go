package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/fieldvault/internal/schema"
)

func testTable(t *testing.T) *Table {
	t.Helper()

	registry, err := schema.NewRegistry([]schema.FieldDefinition{
		{
			EntityType: "patient",
			Field:      "ssn",
			Mode:       schema.ModeDeterministic,
			KeyAlias:   "patient.ssn",
			ReadRoles:  []string{"doctor", "admin"},
			WriteRoles: []string{"admin"},
		},
		{
			EntityType: "patient",
			Field:      "medical_notes",
			Mode:       schema.ModeRandom,
			KeyAlias:   "patient.medical_notes",
			ReadRoles:  []string{"doctor"},
			WriteRoles: []string{"doctor"},
		},
		{
			EntityType: "patient",
			Field:      "display_name",
			ReadRoles:  []string{"doctor", "admin", "receptionist"},
			WriteRoles: []string{"admin"},
		},
	})
	require.NoError(t, err)

	return NewTable(registry.All())
}

func TestTable_Evaluate(t *testing.T) {
	table := testTable(t)

	tests := []struct {
		name       string
		roles      []string
		entityType string
		field      string
		action     Action
		want       Decision
	}{
		{"doctor reads ssn", []string{"doctor"}, "patient", "ssn", ActionRead, Allow},
		{"doctor cannot write ssn", []string{"doctor"}, "patient", "ssn", ActionWrite, Deny},
		{"admin writes ssn", []string{"admin"}, "patient", "ssn", ActionWrite, Allow},
		{"receptionist cannot read ssn", []string{"receptionist"}, "patient", "ssn", ActionRead, Deny},
		{"any matching role allows", []string{"receptionist", "doctor"}, "patient", "ssn", ActionRead, Allow},
		{"empty roles deny", nil, "patient", "ssn", ActionRead, Deny},
		{"unknown entity type denies", []string{"admin"}, "invoice", "amount", ActionRead, Deny},
		{"unknown field denies", []string{"admin"}, "patient", "unknown", ActionRead, Deny},
		{"unknown role denies", []string{"intern"}, "patient", "medical_notes", ActionRead, Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Evaluate(tt.roles, tt.entityType, tt.field, tt.action)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_Evaluate_Deterministic(t *testing.T) {
	table := testTable(t)

	// Same inputs always produce the same decision.
	for range 10 {
		assert.Equal(t, Allow, table.Evaluate([]string{"doctor"}, "patient", "ssn", ActionRead))
		assert.Equal(t, Deny, table.Evaluate([]string{"doctor"}, "patient", "ssn", ActionWrite))
	}
}

func TestTable_Project(t *testing.T) {
	table := testTable(t)

	t.Run("omits denied fields and records them as withheld", func(t *testing.T) {
		record := map[string]any{
			"ssn":           "123-45-6789",
			"medical_notes": "chronic condition",
			"display_name":  "Jane D.",
		}

		projection := table.Project(record, "patient", []string{"admin"})
		assert.Equal(t, map[string]any{
			"ssn":          "123-45-6789",
			"display_name": "Jane D.",
		}, projection.Fields)
		assert.Equal(t, []string{"medical_notes"}, projection.Withheld)

		// Denied fields are absent, not present with a null value.
		_, present := projection.Fields["medical_notes"]
		assert.False(t, present)
	})

	t.Run("does not mutate the input record", func(t *testing.T) {
		record := map[string]any{
			"ssn":           "123-45-6789",
			"medical_notes": "chronic condition",
		}

		table.Project(record, "patient", []string{"receptionist"})
		assert.Len(t, record, 2)
		assert.Equal(t, "123-45-6789", record["ssn"])
	})

	t.Run("withholds everything for empty roles", func(t *testing.T) {
		record := map[string]any{"ssn": "123-45-6789", "display_name": "Jane D."}

		projection := table.Project(record, "patient", nil)
		assert.Empty(t, projection.Fields)
		assert.Equal(t, []string{"display_name", "ssn"}, projection.Withheld)
	})

	t.Run("withholds unregistered fields", func(t *testing.T) {
		record := map[string]any{"shoe_size": 42}

		projection := table.Project(record, "patient", []string{"admin"})
		assert.Empty(t, projection.Fields)
		assert.Equal(t, []string{"shoe_size"}, projection.Withheld)
	})
}
