package commands

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoMocks "github.com/allisson/fieldvault/internal/crypto/usecase/mocks"
)

func TestRunRotateKek(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	masterKeyChain := &cryptoDomain.MasterKeyChain{}

	t.Run("success", func(t *testing.T) {
		mockUseCase := &cryptoMocks.MockKekUseCase{}
		mockUseCase.On("Rotate", ctx, masterKeyChain, cryptoDomain.AESGCM).Return(nil)

		err := RunRotateKek(ctx, mockUseCase, masterKeyChain, logger, "aes-gcm")
		require.NoError(t, err)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-algorithm", func(t *testing.T) {
		mockUseCase := &cryptoMocks.MockKekUseCase{}
		err := RunRotateKek(ctx, mockUseCase, masterKeyChain, logger, "des")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid algorithm")
	})

	t.Run("rotate-failure", func(t *testing.T) {
		mockUseCase := &cryptoMocks.MockKekUseCase{}
		mockUseCase.On("Rotate", ctx, masterKeyChain, cryptoDomain.AESGCM).Return(errors.New("boom"))

		err := RunRotateKek(ctx, mockUseCase, masterKeyChain, logger, "aes-gcm")
		require.Error(t, err)
		mockUseCase.AssertExpectations(t)
	})
}
