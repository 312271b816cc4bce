package postgresql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

func TestPostgreSQLKekRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create inserts a kek", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		kek := &cryptoDomain.Kek{
			ID:           uuid.Must(uuid.NewV7()),
			MasterKeyID:  "key1",
			Algorithm:    cryptoDomain.AESGCM,
			EncryptedKey: []byte("encrypted-key"),
			Nonce:        []byte("nonce"),
			Version:      1,
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
		}
		mock.ExpectExec("INSERT INTO keks").
			WithArgs(kek.ID, kek.MasterKeyID, kek.Algorithm, kek.EncryptedKey, kek.Nonce, kek.Version, kek.IsActive, kek.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPostgreSQLKekRepository(db)
		require.NoError(t, repo.Create(ctx, kek))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Update deactivates a kek", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		kek := &cryptoDomain.Kek{
			ID:           uuid.Must(uuid.NewV7()),
			MasterKeyID:  "key1",
			Algorithm:    cryptoDomain.AESGCM,
			EncryptedKey: []byte("encrypted-key"),
			Nonce:        []byte("nonce"),
			Version:      1,
			IsActive:     false,
			CreatedAt:    time.Now().UTC(),
		}
		mock.ExpectExec("UPDATE keks").
			WithArgs(kek.MasterKeyID, kek.Algorithm, kek.EncryptedKey, kek.Nonce, kek.Version, kek.IsActive, kek.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPostgreSQLKekRepository(db)
		require.NoError(t, repo.Update(ctx, kek))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("List returns keks newest first", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		id1 := uuid.Must(uuid.NewV7())
		id2 := uuid.Must(uuid.NewV7())
		now := time.Now().UTC()
		rows := sqlmock.NewRows([]string{"id", "master_key_id", "algorithm", "encrypted_key", "nonce", "version", "is_active", "created_at"}).
			AddRow(id2, "key1", cryptoDomain.AESGCM, []byte("ek2"), []byte("n2"), 2, true, now).
			AddRow(id1, "key1", cryptoDomain.AESGCM, []byte("ek1"), []byte("n1"), 1, false, now)
		mock.ExpectQuery("SELECT (.+) FROM keks").WillReturnRows(rows)

		repo := NewPostgreSQLKekRepository(db)
		keks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, keks, 2)
		assert.Equal(t, id2, keks[0].ID)
		assert.True(t, keks[0].IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
