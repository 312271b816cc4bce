package postgresql

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

const fieldKeyColumns = `id, alias, version, kek_id, algorithm, encrypted_key, nonce, retired_at, created_at`

// PostgreSQLFieldKeyRepository implements field key persistence for PostgreSQL.
// Uses native UUID and BYTEA types with transaction support via database.GetTx().
type PostgreSQLFieldKeyRepository struct {
	db *sql.DB
}

// Create inserts a new field key. The (alias, version) pair is protected by a
// unique constraint; a concurrent first-use race loses the insert and gets
// ErrConflict, at which point the caller re-fetches the winning key.
func (p *PostgreSQLFieldKeyRepository) Create(
	ctx context.Context,
	fieldKey *cryptoDomain.FieldKey,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO field_keys (id, alias, version, kek_id, algorithm, encrypted_key, nonce, retired_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  ON CONFLICT (alias, version) DO NOTHING`

	result, err := querier.ExecContext(
		ctx,
		query,
		fieldKey.ID,
		fieldKey.Alias,
		fieldKey.Version,
		fieldKey.KekID,
		fieldKey.Algorithm,
		fieldKey.EncryptedKey,
		fieldKey.Nonce,
		fieldKey.RetiredAt,
		fieldKey.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create field key")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check field key insert")
	}
	if rowsAffected == 0 {
		return apperrors.Wrap(apperrors.ErrConflict, "field key version already exists")
	}

	return nil
}

// GetActive retrieves the active (non-retired) field key for the alias.
func (p *PostgreSQLFieldKeyRepository) GetActive(
	ctx context.Context,
	alias string,
) (*cryptoDomain.FieldKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + fieldKeyColumns + `
			  FROM field_keys
			  WHERE alias = $1 AND retired_at IS NULL
			  ORDER BY version DESC
			  LIMIT 1`

	return p.scanOne(querier.QueryRowContext(ctx, query, alias))
}

// Get retrieves a field key by alias and version. Retired versions remain
// retrievable so historical ciphertext stays decryptable.
func (p *PostgreSQLFieldKeyRepository) Get(
	ctx context.Context,
	alias string,
	version uint,
) (*cryptoDomain.FieldKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + fieldKeyColumns + `
			  FROM field_keys
			  WHERE alias = $1 AND version = $2`

	return p.scanOne(querier.QueryRowContext(ctx, query, alias, version))
}

// ListByAlias retrieves all versions of a field key ordered by version descending.
func (p *PostgreSQLFieldKeyRepository) ListByAlias(
	ctx context.Context,
	alias string,
) ([]*cryptoDomain.FieldKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + fieldKeyColumns + `
			  FROM field_keys
			  WHERE alias = $1
			  ORDER BY version DESC`

	rows, err := querier.QueryContext(ctx, query, alias)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list field keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	return p.scanRows(rows)
}

// Update modifies an existing field key (retire flags or rewrapped key material).
func (p *PostgreSQLFieldKeyRepository) Update(
	ctx context.Context,
	fieldKey *cryptoDomain.FieldKey,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE field_keys
			  SET kek_id = $1,
			  	  algorithm = $2,
				  encrypted_key = $3,
				  nonce = $4,
				  retired_at = $5
			  WHERE id = $6`

	_, err := querier.ExecContext(
		ctx,
		query,
		fieldKey.KekID,
		fieldKey.Algorithm,
		fieldKey.EncryptedKey,
		fieldKey.Nonce,
		fieldKey.RetiredAt,
		fieldKey.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update field key")
	}

	return nil
}

// GetBatchNotKekID retrieves a batch of field keys that are not encrypted with
// the given KEK ID. Used to rewrap keys after a KEK rotation.
func (p *PostgreSQLFieldKeyRepository) GetBatchNotKekID(
	ctx context.Context,
	kekID uuid.UUID,
	limit int,
) ([]*cryptoDomain.FieldKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + fieldKeyColumns + `
			  FROM field_keys
			  WHERE kek_id != $1
			  ORDER BY created_at ASC
			  LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, kekID, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query field keys batch")
	}
	defer func() {
		_ = rows.Close()
	}()

	return p.scanRows(rows)
}

func (p *PostgreSQLFieldKeyRepository) scanOne(row *sql.Row) (*cryptoDomain.FieldKey, error) {
	var fieldKey cryptoDomain.FieldKey
	err := row.Scan(
		&fieldKey.ID,
		&fieldKey.Alias,
		&fieldKey.Version,
		&fieldKey.KekID,
		&fieldKey.Algorithm,
		&fieldKey.EncryptedKey,
		&fieldKey.Nonce,
		&fieldKey.RetiredAt,
		&fieldKey.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cryptoDomain.ErrFieldKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get field key")
	}

	return &fieldKey, nil
}

func (p *PostgreSQLFieldKeyRepository) scanRows(rows *sql.Rows) ([]*cryptoDomain.FieldKey, error) {
	var fieldKeys []*cryptoDomain.FieldKey
	for rows.Next() {
		var fieldKey cryptoDomain.FieldKey
		if err := rows.Scan(
			&fieldKey.ID,
			&fieldKey.Alias,
			&fieldKey.Version,
			&fieldKey.KekID,
			&fieldKey.Algorithm,
			&fieldKey.EncryptedKey,
			&fieldKey.Nonce,
			&fieldKey.RetiredAt,
			&fieldKey.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan field key")
		}
		fieldKeys = append(fieldKeys, &fieldKey)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "error iterating field keys")
	}

	return fieldKeys, nil
}

// NewPostgreSQLFieldKeyRepository creates a new PostgreSQL field key repository.
func NewPostgreSQLFieldKeyRepository(db *sql.DB) *PostgreSQLFieldKeyRepository {
	return &PostgreSQLFieldKeyRepository{db: db}
}
