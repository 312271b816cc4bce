// Package domain defines the tamper-evident audit trail entities.
//
// Every read, write, search and key rotation produces an audit entry. Entries
// are append-only and HMAC-signed with a key derived from the KEK that was
// active when they were written, so silent edits to the trail are detectable.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action is the audited operation kind.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionSearch Action = "search"
	ActionRotate Action = "rotate"
)

// Outcome is the audited authorization result.
type Outcome string

const (
	OutcomeAllow Outcome = "allow"
	OutcomeDeny  Outcome = "deny"
)

// FieldAccess records the per-field authorization outcome of an operation:
// which fields were touched and which were denied or withheld.
type FieldAccess struct {
	Field   string  `json:"field"`
	Outcome Outcome `json:"outcome"`
}

// Entry is one audit trail record. KekID pins the KEK whose derived key
// signed the entry, so signatures stay verifiable across KEK rotations.
type Entry struct {
	ID          uuid.UUID
	PrincipalID string
	Action      Action
	EntityType  string
	EntityID    string
	Fields      []FieldAccess
	Outcome     Outcome
	Metadata    map[string]any
	KekID       uuid.UUID
	Signature   []byte
	CreatedAt   time.Time
}

// Filter narrows audit entry listings. Nil/empty members mean no filter;
// time boundaries are inclusive.
type Filter struct {
	From        *time.Time
	To          *time.Time
	PrincipalID string
	EntityType  string
	EntityID    string
}

// IntegrityReport is the result of verifying a batch of audit entries.
type IntegrityReport struct {
	Checked int
	Valid   int
	Invalid []uuid.UUID // IDs of entries whose signature did not verify
}

// Intact reports whether every checked entry verified.
func (r *IntegrityReport) Intact() bool {
	return len(r.Invalid) == 0
}
