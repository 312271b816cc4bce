package policy

import (
	"sort"
)

// Projection is the result of filtering a record through the policy table.
type Projection struct {
	// Fields holds the allowed fields. Denied fields are omitted entirely,
	// never present with a null value, so a reader cannot distinguish a
	// withheld field from an absent one by inspecting the payload.
	Fields map[string]any

	// Withheld lists the names of the denied fields, sorted, for auditing.
	Withheld []string
}

// Project filters a decrypted record down to the fields the given roles may
// read. The input map is never mutated. Fields without a registered
// definition follow the table's default-deny.
func (t *Table) Project(record map[string]any, entityType string, roles []string) *Projection {
	projection := &Projection{Fields: make(map[string]any, len(record))}

	for field, value := range record {
		if t.Evaluate(roles, entityType, field, ActionRead) == Allow {
			projection.Fields[field] = value
			continue
		}
		projection.Withheld = append(projection.Withheld, field)
	}

	sort.Strings(projection.Withheld)
	return projection
}
