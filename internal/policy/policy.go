// Package policy implements role-based field access evaluation and
// permission-aware projection.
//
// Policy rules are data, not code: the table is built at startup from the
// field schema registry's role lists and is immutable afterwards. Evaluation
// is pure and deterministic, which keeps the rules exhaustively testable.
package policy

import (
	"github.com/allisson/fieldvault/internal/schema"
)

// Action is the kind of access being evaluated.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// Decision is the outcome of a policy evaluation.
type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
)

// Principal is an authenticated caller. Authentication happens outside this
// engine; principals arrive with their roles already resolved.
type Principal struct {
	ID    string
	Roles []string
}

// Table maps (entity type, field, action) to the set of roles allowed to
// perform that action. Anything absent from the table is denied.
type Table struct {
	allowed map[string]map[string]map[Action]map[string]struct{}
}

// Evaluate returns the access decision for the given roles on a field.
//
// Default-deny: an unregistered entity type or field, an empty role set, or a
// role absent from the field's role list all evaluate to Deny.
func (t *Table) Evaluate(roles []string, entityType, field string, action Action) Decision {
	fields, ok := t.allowed[entityType]
	if !ok {
		return Deny
	}
	actions, ok := fields[field]
	if !ok {
		return Deny
	}
	roleSet, ok := actions[action]
	if !ok {
		return Deny
	}

	for _, role := range roles {
		if _, ok := roleSet[role]; ok {
			return Allow
		}
	}

	return Deny
}

// NewTable builds a policy table from field definitions.
func NewTable(defs []*schema.FieldDefinition) *Table {
	table := &Table{allowed: make(map[string]map[string]map[Action]map[string]struct{})}

	for _, def := range defs {
		fields, ok := table.allowed[def.EntityType]
		if !ok {
			fields = make(map[string]map[Action]map[string]struct{})
			table.allowed[def.EntityType] = fields
		}

		actions := make(map[Action]map[string]struct{})
		actions[ActionRead] = roleSet(def.ReadRoles)
		actions[ActionWrite] = roleSet(def.WriteRoles)
		fields[def.Field] = actions
	}

	return table
}

func roleSet(roles []string) map[string]struct{} {
	set := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}
