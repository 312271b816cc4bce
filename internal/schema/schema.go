// Package schema implements the field classification registry.
//
// Every entity field that carries sensitive data is classified with an
// encryption mode and a key alias. The registry is resolved once at startup
// from a JSON document and is immutable afterwards: a field keeps the same
// mode for its whole life, and changing a mode is a data migration performed
// outside this engine.
package schema

import (
	"encoding/json"
	"fmt"
	"os"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/fieldvault/internal/errors"
)

// Mode is the encryption mode of a classified field. It decides both the
// cipher construction and which query predicates the field supports.
type Mode string

const (
	// ModeDeterministic produces stable ciphertext for equal plaintext under
	// the same key version, enabling equality search. Equal values are
	// observable as equal in the store.
	ModeDeterministic Mode = "deterministic"

	// ModeRandom produces fresh ciphertext on every encryption. Maximum
	// confidentiality, no search capability.
	ModeRandom Mode = "random"

	// ModeRange additionally emits an order-preserving code into the search
	// index, enabling range predicates over the ciphertext.
	ModeRange Mode = "range"

	// ModePlaintext marks a field that is stored unencrypted. The zero value
	// of Mode, used for fields that carry no sensitive data.
	ModePlaintext Mode = ""
)

// FieldDefinition classifies a single field of an entity type.
//
// ReadRoles and WriteRoles drive the access policy table; a role absent from
// both lists is denied everything on this field.
type FieldDefinition struct {
	EntityType string   `json:"entity_type"`
	Field      string   `json:"field"`
	Mode       Mode     `json:"mode"`
	KeyAlias   string   `json:"key_alias"`
	ReadRoles  []string `json:"read_roles"`
	WriteRoles []string `json:"write_roles"`
}

// Encrypted reports whether the field is stored encrypted.
func (f *FieldDefinition) Encrypted() bool {
	return f.Mode != ModePlaintext
}

// Searchable reports whether the field produces search index entries.
func (f *FieldDefinition) Searchable() bool {
	return f.Mode == ModeDeterministic || f.Mode == ModeRange
}

// Validate checks the definition for structural errors.
func (f FieldDefinition) Validate() error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.EntityType, validation.Required),
		validation.Field(&f.Field, validation.Required),
		validation.Field(&f.Mode, validation.In(
			ModePlaintext, ModeDeterministic, ModeRandom, ModeRange,
		)),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	if f.Encrypted() && f.KeyAlias == "" {
		return apperrors.Wrapf(
			apperrors.ErrInvalidInput,
			"field %s.%s: encrypted fields require a key alias",
			f.EntityType, f.Field,
		)
	}

	return nil
}

// Registry holds the resolved field definitions, keyed by entity type and
// field name. Read-only after construction, safe for concurrent use.
type Registry struct {
	byEntity map[string]map[string]*FieldDefinition
}

// Lookup returns the definition for a field, or false when the field is not
// registered (unregistered fields are stored as plaintext).
func (r *Registry) Lookup(entityType, field string) (*FieldDefinition, bool) {
	fields, ok := r.byEntity[entityType]
	if !ok {
		return nil, false
	}
	def, ok := fields[field]
	return def, ok
}

// Definitions returns all definitions registered for an entity type.
func (r *Registry) Definitions(entityType string) []*FieldDefinition {
	fields, ok := r.byEntity[entityType]
	if !ok {
		return nil
	}

	defs := make([]*FieldDefinition, 0, len(fields))
	for _, def := range fields {
		defs = append(defs, def)
	}
	return defs
}

// All returns every registered definition across entity types.
func (r *Registry) All() []*FieldDefinition {
	var defs []*FieldDefinition
	for _, fields := range r.byEntity {
		for _, def := range fields {
			defs = append(defs, def)
		}
	}
	return defs
}

// NewRegistry builds a registry from field definitions, validating each one
// and rejecting duplicate (entity type, field) pairs.
func NewRegistry(defs []FieldDefinition) (*Registry, error) {
	registry := &Registry{byEntity: make(map[string]map[string]*FieldDefinition)}

	for i := range defs {
		def := defs[i]
		if err := def.Validate(); err != nil {
			return nil, err
		}

		fields, ok := registry.byEntity[def.EntityType]
		if !ok {
			fields = make(map[string]*FieldDefinition)
			registry.byEntity[def.EntityType] = fields
		}
		if _, exists := fields[def.Field]; exists {
			return nil, apperrors.Wrapf(
				apperrors.ErrInvalidInput,
				"duplicate field definition %s.%s",
				def.EntityType, def.Field,
			)
		}
		fields[def.Field] = &def
	}

	return registry, nil
}

// Load reads field definitions from a JSON file and builds a registry.
//
// The file is a JSON array of field definition objects:
//
//	[
//	  {
//	    "entity_type": "patient",
//	    "field": "ssn",
//	    "mode": "deterministic",
//	    "key_alias": "patient.ssn",
//	    "read_roles": ["doctor", "admin"],
//	    "write_roles": ["admin"]
//	  }
//	]
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	var defs []FieldDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "failed to parse schema file %s: %v", path, err)
	}

	return NewRegistry(defs)
}
