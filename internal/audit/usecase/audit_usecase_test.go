package usecase

import (
	"context"
	"crypto/rand"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	auditService "github.com/allisson/fieldvault/internal/audit/service"
	"github.com/allisson/fieldvault/internal/audit/usecase/mocks"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

func newTestKek(t *testing.T, version uint, isActive bool) *cryptoDomain.Kek {
	t.Helper()

	key := make([]byte, cryptoDomain.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	return &cryptoDomain.Kek{
		ID:        uuid.Must(uuid.NewV7()),
		Algorithm: cryptoDomain.AESGCM,
		Key:       key,
		Version:   version,
		IsActive:  isActive,
		CreatedAt: time.Now().UTC(),
	}
}

func newTestEntry() *auditDomain.Entry {
	return &auditDomain.Entry{
		PrincipalID: "svc-billing",
		Action:      auditDomain.ActionRead,
		EntityType:  "patient",
		EntityID:    "patient-42",
		Fields: []auditDomain.FieldAccess{
			{Field: "ssn", Outcome: auditDomain.OutcomeAllow},
			{Field: "medical_notes", Outcome: auditDomain.OutcomeDeny},
		},
		Outcome: auditDomain.OutcomeAllow,
	}
}

func TestAuditUseCaseRecord(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	signer := auditService.NewAuditSigner()

	t.Run("Record signs with the active kek and persists", func(t *testing.T) {
		kek := newTestKek(t, 1, true)
		kekChain := cryptoDomain.NewKekChain([]*cryptoDomain.Kek{kek})
		auditRepo := &mocks.MockAuditRepository{}
		auditRepo.On("Create", ctx, mock.AnythingOfType("*domain.Entry")).Return(nil)
		useCase := NewAuditUseCase(auditRepo, signer, logger)

		entry := newTestEntry()
		err := useCase.Record(ctx, kekChain, entry)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
		assert.Equal(t, kek.ID, entry.KekID)
		assert.NoError(t, signer.Verify(kek.Key, entry))
		auditRepo.AssertExpectations(t)
	})

	t.Run("Record fails closed when persistence fails", func(t *testing.T) {
		kek := newTestKek(t, 1, true)
		kekChain := cryptoDomain.NewKekChain([]*cryptoDomain.Kek{kek})
		auditRepo := &mocks.MockAuditRepository{}
		auditRepo.On("Create", ctx, mock.AnythingOfType("*domain.Entry")).Return(apperrors.New("connection refused"))
		useCase := NewAuditUseCase(auditRepo, signer, logger)

		err := useCase.Record(ctx, kekChain, newTestEntry())
		assert.ErrorIs(t, err, auditDomain.ErrAuditWriteFailed)
		auditRepo.AssertExpectations(t)
	})

	t.Run("Record fails closed without an active kek", func(t *testing.T) {
		auditRepo := &mocks.MockAuditRepository{}
		useCase := NewAuditUseCase(auditRepo, signer, logger)

		err := useCase.Record(ctx, &cryptoDomain.KekChain{}, newTestEntry())
		assert.ErrorIs(t, err, auditDomain.ErrAuditWriteFailed)
		auditRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Record fails closed with an unwrapped kek", func(t *testing.T) {
		kek := newTestKek(t, 1, true)
		kek.Key = nil
		kekChain := cryptoDomain.NewKekChain([]*cryptoDomain.Kek{kek})
		auditRepo := &mocks.MockAuditRepository{}
		useCase := NewAuditUseCase(auditRepo, signer, logger)

		err := useCase.Record(ctx, kekChain, newTestEntry())
		assert.ErrorIs(t, err, auditDomain.ErrAuditWriteFailed)
		auditRepo.AssertNotCalled(t, "Create")
	})
}

func TestAuditUseCaseList(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	signer := auditService.NewAuditSigner()

	principalID := "svc-billing"
	filter := auditDomain.Filter{PrincipalID: principalID}
	expected := []*auditDomain.Entry{newTestEntry()}

	auditRepo := &mocks.MockAuditRepository{}
	auditRepo.On("List", ctx, filter, 0, 50).Return(expected, nil)
	useCase := NewAuditUseCase(auditRepo, signer, logger)

	entries, err := useCase.List(ctx, filter, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, expected, entries)
	auditRepo.AssertExpectations(t)
}

func TestAuditUseCaseVerifyBatch(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	signer := auditService.NewAuditSigner()

	signedEntry := func(t *testing.T, kek *cryptoDomain.Kek) *auditDomain.Entry {
		t.Helper()
		entry := newTestEntry()
		entry.ID = uuid.Must(uuid.NewV7())
		entry.CreatedAt = time.Now().UTC()
		entry.KekID = kek.ID

		signature, err := signer.Sign(kek.Key, entry)
		require.NoError(t, err)
		entry.Signature = signature
		return entry
	}

	t.Run("all entries intact", func(t *testing.T) {
		kek := newTestKek(t, 1, true)
		kekChain := cryptoDomain.NewKekChain([]*cryptoDomain.Kek{kek})

		entries := []*auditDomain.Entry{signedEntry(t, kek), signedEntry(t, kek)}
		auditRepo := &mocks.MockAuditRepository{}
		auditRepo.On("List", ctx, auditDomain.Filter{}, 0, verifyBatchSize).Return(entries, nil)
		useCase := NewAuditUseCase(auditRepo, signer, logger)

		report, err := useCase.VerifyBatch(ctx, kekChain, auditDomain.Filter{})
		require.NoError(t, err)

		assert.Equal(t, 2, report.Checked)
		assert.Equal(t, 2, report.Valid)
		assert.True(t, report.Intact())
	})

	t.Run("tampered entry is reported invalid", func(t *testing.T) {
		kek := newTestKek(t, 1, true)
		kekChain := cryptoDomain.NewKekChain([]*cryptoDomain.Kek{kek})

		intact := signedEntry(t, kek)
		tampered := signedEntry(t, kek)
		tampered.PrincipalID = "svc-imposter"

		auditRepo := &mocks.MockAuditRepository{}
		auditRepo.On("List", ctx, auditDomain.Filter{}, 0, verifyBatchSize).
			Return([]*auditDomain.Entry{intact, tampered}, nil)
		useCase := NewAuditUseCase(auditRepo, signer, logger)

		report, err := useCase.VerifyBatch(ctx, kekChain, auditDomain.Filter{})
		require.NoError(t, err)

		assert.Equal(t, 2, report.Checked)
		assert.Equal(t, 1, report.Valid)
		assert.Equal(t, []uuid.UUID{tampered.ID}, report.Invalid)
		assert.False(t, report.Intact())
	})

	t.Run("entries survive kek rotation", func(t *testing.T) {
		oldKek := newTestKek(t, 1, false)
		newKek := newTestKek(t, 2, true)
		kekChain := cryptoDomain.NewKekChain([]*cryptoDomain.Kek{newKek, oldKek})

		entries := []*auditDomain.Entry{signedEntry(t, oldKek), signedEntry(t, newKek)}
		auditRepo := &mocks.MockAuditRepository{}
		auditRepo.On("List", ctx, auditDomain.Filter{}, 0, verifyBatchSize).Return(entries, nil)
		useCase := NewAuditUseCase(auditRepo, signer, logger)

		report, err := useCase.VerifyBatch(ctx, kekChain, auditDomain.Filter{})
		require.NoError(t, err)

		assert.Equal(t, 2, report.Valid)
		assert.True(t, report.Intact())
	})

	t.Run("entry with unknown kek is reported invalid", func(t *testing.T) {
		kek := newTestKek(t, 1, true)
		kekChain := cryptoDomain.NewKekChain([]*cryptoDomain.Kek{kek})

		orphanKek := newTestKek(t, 9, false)
		orphan := signedEntry(t, orphanKek)

		auditRepo := &mocks.MockAuditRepository{}
		auditRepo.On("List", ctx, auditDomain.Filter{}, 0, verifyBatchSize).
			Return([]*auditDomain.Entry{orphan}, nil)
		useCase := NewAuditUseCase(auditRepo, signer, logger)

		report, err := useCase.VerifyBatch(ctx, kekChain, auditDomain.Filter{})
		require.NoError(t, err)

		assert.Equal(t, 1, report.Checked)
		assert.Equal(t, 0, report.Valid)
		assert.Equal(t, []uuid.UUID{orphan.ID}, report.Invalid)
	})

	t.Run("pages through the trail", func(t *testing.T) {
		kek := newTestKek(t, 1, true)
		kekChain := cryptoDomain.NewKekChain([]*cryptoDomain.Kek{kek})

		firstPage := make([]*auditDomain.Entry, verifyBatchSize)
		for i := range firstPage {
			firstPage[i] = signedEntry(t, kek)
		}
		secondPage := []*auditDomain.Entry{signedEntry(t, kek)}

		auditRepo := &mocks.MockAuditRepository{}
		auditRepo.On("List", ctx, auditDomain.Filter{}, 0, verifyBatchSize).Return(firstPage, nil)
		auditRepo.On("List", ctx, auditDomain.Filter{}, verifyBatchSize, verifyBatchSize).Return(secondPage, nil)
		useCase := NewAuditUseCase(auditRepo, signer, logger)

		report, err := useCase.VerifyBatch(ctx, kekChain, auditDomain.Filter{})
		require.NoError(t, err)

		assert.Equal(t, verifyBatchSize+1, report.Checked)
		assert.Equal(t, verifyBatchSize+1, report.Valid)
		auditRepo.AssertExpectations(t)
	})
}
