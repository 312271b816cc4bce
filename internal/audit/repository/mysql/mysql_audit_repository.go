// Package mysql implements audit trail persistence for MySQL.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

// MySQLAuditRepository implements append-only audit entry persistence.
// UUIDs are stored as BINARY(16).
type MySQLAuditRepository struct {
	db *sql.DB
}

// Create inserts a new audit entry. Supports transaction context so the entry
// commits atomically with the operation it audits.
func (m *MySQLAuditRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, m.db)

	fieldsJSON, err := json.Marshal(entry.Fields)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit entry fields")
	}

	var metadataJSON []byte
	if entry.Metadata != nil {
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit entry metadata")
		}
	}

	query := `INSERT INTO audit_entries (id, principal_id, action, entity_type, entity_id, fields, outcome, metadata, kek_id, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		entry.ID[:],
		entry.PrincipalID,
		string(entry.Action),
		entry.EntityType,
		entry.EntityID,
		fieldsJSON,
		string(entry.Outcome),
		metadataJSON,
		entry.KekID[:],
		entry.Signature,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit entry")
	}

	return nil
}

// List retrieves audit entries matching the filter, newest first.
func (m *MySQLAuditRepository) List(
	ctx context.Context,
	filter auditDomain.Filter,
	offset, limit int,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	var args []any
	conds := []string{"TRUE"}
	if filter.From != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, *filter.To)
	}
	if filter.PrincipalID != "" {
		conds = append(conds, "principal_id = ?")
		args = append(args, filter.PrincipalID)
	}
	if filter.EntityType != "" {
		conds = append(conds, "entity_type = ?")
		args = append(args, filter.EntityType)
	}
	if filter.EntityID != "" {
		conds = append(conds, "entity_id = ?")
		args = append(args, filter.EntityID)
	}

	query := `SELECT id, principal_id, action, entity_type, entity_id, fields, outcome, metadata, kek_id, signature, created_at
			  FROM audit_entries
			  WHERE ` + strings.Join(conds, " AND ") + `
			  ORDER BY created_at DESC, id DESC
			  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.Entry, 0)
	for rows.Next() {
		var entry auditDomain.Entry
		var idBytes, kekIDBytes []byte
		var action, outcome string
		var fieldsJSON, metadataJSON []byte

		err := rows.Scan(
			&idBytes,
			&entry.PrincipalID,
			&action,
			&entry.EntityType,
			&entry.EntityID,
			&fieldsJSON,
			&outcome,
			&metadataJSON,
			&kekIDBytes,
			&entry.Signature,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit entry")
		}

		entry.ID, err = uuid.FromBytes(idBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse audit entry id")
		}
		entry.KekID, err = uuid.FromBytes(kekIDBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse audit entry kek id")
		}

		entry.Action = auditDomain.Action(action)
		entry.Outcome = auditDomain.Outcome(outcome)

		if fieldsJSON != nil {
			if err := json.Unmarshal(fieldsJSON, &entry.Fields); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal audit entry fields")
			}
		}
		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal audit entry metadata")
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit entries")
	}

	return entries, nil
}

// NewMySQLAuditRepository creates a new MySQL audit repository.
func NewMySQLAuditRepository(db *sql.DB) *MySQLAuditRepository {
	return &MySQLAuditRepository{db: db}
}
