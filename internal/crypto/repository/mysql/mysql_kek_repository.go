// Package mysql implements crypto repositories for MySQL.
package mysql

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

// MySQLKekRepository implements KEK persistence for MySQL.
// Uses BINARY(16) for UUIDs and BLOB for binary data.
type MySQLKekRepository struct {
	db *sql.DB
}

// Create inserts a new KEK into the MySQL database.
func (m *MySQLKekRepository) Create(ctx context.Context, kek *cryptoDomain.Kek) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO keks (id, master_key_id, algorithm, encrypted_key, nonce, version, is_active, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		kek.ID[:],
		kek.MasterKeyID,
		kek.Algorithm,
		kek.EncryptedKey,
		kek.Nonce,
		kek.Version,
		kek.IsActive,
		kek.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create kek")
	}
	return nil
}

// Update modifies an existing KEK in the MySQL database.
func (m *MySQLKekRepository) Update(ctx context.Context, kek *cryptoDomain.Kek) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE keks
			  SET master_key_id = ?,
			  	  algorithm = ?,
				  encrypted_key = ?,
				  nonce = ?,
				  version = ?,
				  is_active = ?
			  WHERE id = ?`

	_, err := querier.ExecContext(
		ctx,
		query,
		kek.MasterKeyID,
		kek.Algorithm,
		kek.EncryptedKey,
		kek.Nonce,
		kek.Version,
		kek.IsActive,
		kek.ID[:],
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update kek")
	}

	return nil
}

// List retrieves all KEKs ordered by version descending (newest first).
func (m *MySQLKekRepository) List(ctx context.Context) ([]*cryptoDomain.Kek, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, master_key_id, algorithm, encrypted_key, nonce, version, is_active, created_at
			  FROM keks
			  ORDER BY version DESC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list keks")
	}
	defer func() {
		_ = rows.Close()
	}()

	var keks []*cryptoDomain.Kek
	for rows.Next() {
		var kek cryptoDomain.Kek
		var idBytes []byte
		if err := rows.Scan(
			&idBytes,
			&kek.MasterKeyID,
			&kek.Algorithm,
			&kek.EncryptedKey,
			&kek.Nonce,
			&kek.Version,
			&kek.IsActive,
			&kek.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan kek")
		}

		id, err := uuid.FromBytes(idBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse kek id")
		}
		kek.ID = id

		keks = append(keks, &kek)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "error iterating keks")
	}

	return keks, nil
}

// NewMySQLKekRepository creates a new MySQL KEK repository.
func NewMySQLKekRepository(db *sql.DB) *MySQLKekRepository {
	return &MySQLKekRepository{db: db}
}
