package mysql

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

const fieldKeyColumns = "id, alias, version, kek_id, algorithm, encrypted_key, nonce, retired_at, created_at"

// MySQLFieldKeyRepository implements field key persistence for MySQL.
type MySQLFieldKeyRepository struct {
	db *sql.DB
}

// Create inserts a new field key. When another writer already inserted the
// same (alias, version) pair, INSERT IGNORE reports zero affected rows and
// Create returns ErrConflict so the caller can fetch the winner.
func (m *MySQLFieldKeyRepository) Create(ctx context.Context, fieldKey *cryptoDomain.FieldKey) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT IGNORE INTO field_keys (id, alias, version, kek_id, algorithm, encrypted_key, nonce, retired_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := querier.ExecContext(
		ctx,
		query,
		fieldKey.ID[:],
		fieldKey.Alias,
		fieldKey.Version,
		fieldKey.KekID[:],
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
		return apperrors.Wrap(err, "failed to read rows affected")
	}
	if rowsAffected == 0 {
		return apperrors.Wrap(apperrors.ErrConflict, "field key already exists")
	}

	return nil
}

// GetActive retrieves the newest non-retired key for an alias.
func (m *MySQLFieldKeyRepository) GetActive(ctx context.Context, alias string) (*cryptoDomain.FieldKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + fieldKeyColumns + `
			  FROM field_keys
			  WHERE alias = ? AND retired_at IS NULL
			  ORDER BY version DESC
			  LIMIT 1`

	return m.scanOne(querier.QueryRowContext(ctx, query, alias))
}

// Get retrieves a specific version of a field key.
func (m *MySQLFieldKeyRepository) Get(ctx context.Context, alias string, version uint) (*cryptoDomain.FieldKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + fieldKeyColumns + `
			  FROM field_keys
			  WHERE alias = ? AND version = ?`

	return m.scanOne(querier.QueryRowContext(ctx, query, alias, version))
}

// ListByAlias retrieves all versions of a field key, newest first.
func (m *MySQLFieldKeyRepository) ListByAlias(ctx context.Context, alias string) ([]*cryptoDomain.FieldKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + fieldKeyColumns + `
			  FROM field_keys
			  WHERE alias = ?
			  ORDER BY version DESC`

	rows, err := querier.QueryContext(ctx, query, alias)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list field keys")
	}

	return m.scanRows(rows)
}

// Update modifies the wrapping material and retirement state of a field key.
func (m *MySQLFieldKeyRepository) Update(ctx context.Context, fieldKey *cryptoDomain.FieldKey) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE field_keys
			  SET kek_id = ?,
				  algorithm = ?,
				  encrypted_key = ?,
				  nonce = ?,
				  retired_at = ?
			  WHERE id = ?`

	_, err := querier.ExecContext(
		ctx,
		query,
		fieldKey.KekID[:],
		fieldKey.Algorithm,
		fieldKey.EncryptedKey,
		fieldKey.Nonce,
		fieldKey.RetiredAt,
		fieldKey.ID[:],
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update field key")
	}

	return nil
}

// GetBatchNotKekID retrieves field keys not wrapped by the given KEK, used
// to rewrap keys after a KEK rotation.
func (m *MySQLFieldKeyRepository) GetBatchNotKekID(ctx context.Context, kekID uuid.UUID, limit int) ([]*cryptoDomain.FieldKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + fieldKeyColumns + `
			  FROM field_keys
			  WHERE kek_id != ?
			  ORDER BY created_at
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, kekID[:], limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get field key batch")
	}

	return m.scanRows(rows)
}

func (m *MySQLFieldKeyRepository) scanOne(row *sql.Row) (*cryptoDomain.FieldKey, error) {
	var fieldKey cryptoDomain.FieldKey
	var idBytes, kekIDBytes []byte
	err := row.Scan(
		&idBytes,
		&fieldKey.Alias,
		&fieldKey.Version,
		&kekIDBytes,
		&fieldKey.Algorithm,
		&fieldKey.EncryptedKey,
		&fieldKey.Nonce,
		&fieldKey.RetiredAt,
		&fieldKey.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.Wrap(cryptoDomain.ErrFieldKeyNotFound, "field key not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan field key")
	}

	if err := m.parseUUIDs(&fieldKey, idBytes, kekIDBytes); err != nil {
		return nil, err
	}

	return &fieldKey, nil
}

func (m *MySQLFieldKeyRepository) scanRows(rows *sql.Rows) ([]*cryptoDomain.FieldKey, error) {
	defer func() {
		_ = rows.Close()
	}()

	var fieldKeys []*cryptoDomain.FieldKey
	for rows.Next() {
		var fieldKey cryptoDomain.FieldKey
		var idBytes, kekIDBytes []byte
		if err := rows.Scan(
			&idBytes,
			&fieldKey.Alias,
			&fieldKey.Version,
			&kekIDBytes,
			&fieldKey.Algorithm,
			&fieldKey.EncryptedKey,
			&fieldKey.Nonce,
			&fieldKey.RetiredAt,
			&fieldKey.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan field key")
		}

		if err := m.parseUUIDs(&fieldKey, idBytes, kekIDBytes); err != nil {
			return nil, err
		}

		fieldKeys = append(fieldKeys, &fieldKey)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "error iterating field keys")
	}

	return fieldKeys, nil
}

func (m *MySQLFieldKeyRepository) parseUUIDs(fieldKey *cryptoDomain.FieldKey, idBytes, kekIDBytes []byte) error {
	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to parse field key id")
	}
	fieldKey.ID = id

	kekID, err := uuid.FromBytes(kekIDBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to parse field key kek id")
	}
	fieldKey.KekID = kekID

	return nil
}

// NewMySQLFieldKeyRepository creates a new MySQL field key repository.
func NewMySQLFieldKeyRepository(db *sql.DB) *MySQLFieldKeyRepository {
	return &MySQLFieldKeyRepository{db: db}
}
