// Package mysql implements record persistence for MySQL.
package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	"github.com/allisson/fieldvault/internal/records/domain"
)

// MySQLRecordRepository persists record documents and their ciphertext search
// index.
type MySQLRecordRepository struct {
	db *sql.DB
}

// Upsert stores a record document and replaces its search index entries.
// Callers run it inside a transaction so the document and its index never
// diverge.
func (m *MySQLRecordRepository) Upsert(
	ctx context.Context,
	record *domain.Record,
	entries []domain.SearchEntry,
) error {
	querier := database.GetTx(ctx, m.db)

	document, err := domain.MarshalDocument(record.Document)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal record document")
	}

	now := time.Now().UTC()
	query := `INSERT INTO records (entity_type, entity_id, document, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE document = VALUES(document), updated_at = VALUES(updated_at)`
	if _, err := querier.ExecContext(ctx, query, record.EntityType, record.EntityID, document, now, now); err != nil {
		return apperrors.Wrap(err, "failed to upsert record")
	}

	deleteQuery := `DELETE FROM record_search_index WHERE entity_type = ? AND entity_id = ?`
	if _, err := querier.ExecContext(ctx, deleteQuery, record.EntityType, record.EntityID); err != nil {
		return apperrors.Wrap(err, "failed to clear search index")
	}

	insertQuery := `INSERT INTO record_search_index (entity_type, entity_id, field_name, key_version, search_value)
					VALUES (?, ?, ?, ?, ?)`
	for _, entry := range entries {
		_, err := querier.ExecContext(
			ctx,
			insertQuery,
			entry.EntityType,
			entry.EntityID,
			entry.FieldName,
			entry.KeyVersion,
			entry.SearchValue,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to insert search index entry")
		}
	}

	return nil
}

// Get retrieves a record by entity type and ID.
func (m *MySQLRecordRepository) Get(
	ctx context.Context, entityType, entityID string,
) (*domain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT entity_type, entity_id, document, created_at, updated_at
			  FROM records
			  WHERE entity_type = ? AND entity_id = ?`

	var record domain.Record
	var document []byte
	err := querier.QueryRowContext(ctx, query, entityType, entityID).Scan(
		&record.EntityType,
		&record.EntityID,
		&document,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.Wrapf(domain.ErrRecordNotFound, "%s/%s", entityType, entityID)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get record")
	}

	record.Document, err = domain.UnmarshalDocument(document)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal record document")
	}

	return &record, nil
}

// Find retrieves the records whose search index matches the predicate.
func (m *MySQLRecordRepository) Find(
	ctx context.Context, predicate *domain.StorePredicate,
) ([]*domain.Record, error) {
	if len(predicate.Terms) == 0 {
		return nil, nil
	}

	querier := database.GetTx(ctx, m.db)

	args := []any{predicate.EntityType, predicate.EntityType, predicate.Field}

	var termConds []string
	for _, term := range predicate.Terms {
		conds := []string{"key_version = ?"}
		args = append(args, term.KeyVersion)

		if len(term.Equals) > 0 {
			placeholders := make([]string, len(term.Equals))
			for i, value := range term.Equals {
				placeholders[i] = "?"
				args = append(args, value)
			}
			conds = append(conds, "search_value IN ("+strings.Join(placeholders, ", ")+")")
		}
		if term.Low != nil {
			conds = append(conds, "search_value >= ?")
			args = append(args, term.Low)
		}
		if term.High != nil {
			conds = append(conds, "search_value <= ?")
			args = append(args, term.High)
		}

		termConds = append(termConds, "("+strings.Join(conds, " AND ")+")")
	}

	query := `SELECT r.entity_type, r.entity_id, r.document, r.created_at, r.updated_at
			  FROM records r
			  WHERE r.entity_type = ?
			  AND r.entity_id IN (
				  SELECT entity_id FROM record_search_index
				  WHERE entity_type = ?
				  AND field_name = ?
				  AND (` + strings.Join(termConds, " OR ") + `)
			  )
			  ORDER BY r.entity_id`

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find records")
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []*domain.Record
	for rows.Next() {
		var record domain.Record
		var document []byte
		if err := rows.Scan(
			&record.EntityType,
			&record.EntityID,
			&document,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan record")
		}

		record.Document, err = domain.UnmarshalDocument(document)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal record document")
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "error iterating records")
	}

	return records, nil
}

// NewMySQLRecordRepository creates a new MySQL record repository.
func NewMySQLRecordRepository(db *sql.DB) *MySQLRecordRepository {
	return &MySQLRecordRepository{db: db}
}
