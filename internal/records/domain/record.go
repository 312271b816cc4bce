// Package domain defines the record storage model for field-level encryption.
//
// Records are schemaless documents addressed by (entity type, entity ID).
// Classified fields are stored as encrypted value envelopes inside the
// document; searchable fields additionally project ciphertext entries into a
// search index so queries run against the store without ever decrypting.
package domain

import (
	"time"

	"github.com/allisson/fieldvault/internal/schema"
)

// Record is a stored document for one entity.
type Record struct {
	EntityType string
	EntityID   string
	Document   map[string]any // field name → plaintext value or *EncryptedValue
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FilteredRecord is a record after decryption and policy projection.
type FilteredRecord struct {
	EntityType string
	EntityID   string
	Fields     map[string]any
	Withheld   []string // fields removed by the policy, sorted
}

// EncryptedValue is the stored envelope for one encrypted field. It carries
// everything needed to decrypt later: the mode, the key alias and version
// the field was encrypted under, the nonce and the ciphertext.
//
// A null plaintext is represented by an empty ciphertext: the cipher is never
// invoked for null values, but the envelope still records the classification.
type EncryptedValue struct {
	Mode       schema.Mode `json:"mode"`
	KeyAlias   string      `json:"key_alias"`
	KeyVersion uint        `json:"key_version"`
	Nonce      []byte      `json:"nonce,omitempty"`
	Ciphertext []byte      `json:"ciphertext,omitempty"`
}

// IsNull reports whether the envelope represents an encrypted null value.
func (e *EncryptedValue) IsNull() bool {
	return len(e.Ciphertext) == 0
}

// SearchEntry is one row of the ciphertext search index. A searchable field
// produces one entry per record; the key version pins the entry to the field
// key version its search value was produced under, so index lookups survive
// key rotation.
type SearchEntry struct {
	EntityType  string
	EntityID    string
	FieldName   string
	KeyVersion  uint
	SearchValue []byte
}
