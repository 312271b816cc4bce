// Package postgresql implements audit trail persistence for PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

// PostgreSQLAuditRepository implements append-only audit entry persistence.
// There is deliberately no update or delete: the trail only grows.
type PostgreSQLAuditRepository struct {
	db *sql.DB
}

// Create inserts a new audit entry. Supports transaction context so the entry
// commits atomically with the operation it audits.
func (p *PostgreSQLAuditRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, p.db)

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
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.PrincipalID,
		string(entry.Action),
		entry.EntityType,
		entry.EntityID,
		fieldsJSON,
		string(entry.Outcome),
		metadataJSON,
		entry.KekID,
		entry.Signature,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit entry")
	}

	return nil
}

// List retrieves audit entries matching the filter, newest first.
func (p *PostgreSQLAuditRepository) List(
	ctx context.Context,
	filter auditDomain.Filter,
	offset, limit int,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conds := []string{"TRUE"}
	if filter.From != nil {
		conds = append(conds, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "created_at <= "+arg(*filter.To))
	}
	if filter.PrincipalID != "" {
		conds = append(conds, "principal_id = "+arg(filter.PrincipalID))
	}
	if filter.EntityType != "" {
		conds = append(conds, "entity_type = "+arg(filter.EntityType))
	}
	if filter.EntityID != "" {
		conds = append(conds, "entity_id = "+arg(filter.EntityID))
	}

	query := `SELECT id, principal_id, action, entity_type, entity_id, fields, outcome, metadata, kek_id, signature, created_at
			  FROM audit_entries
			  WHERE ` + strings.Join(conds, " AND ") + `
			  ORDER BY created_at DESC, id DESC
			  LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

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
		var action, outcome string
		var fieldsJSON, metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.PrincipalID,
			&action,
			&entry.EntityType,
			&entry.EntityID,
			&fieldsJSON,
			&outcome,
			&metadataJSON,
			&entry.KekID,
			&entry.Signature,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit entry")
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

// NewPostgreSQLAuditRepository creates a new PostgreSQL audit repository.
func NewPostgreSQLAuditRepository(db *sql.DB) *PostgreSQLAuditRepository {
	return &PostgreSQLAuditRepository{db: db}
}
