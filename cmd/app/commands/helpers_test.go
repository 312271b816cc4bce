package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

func TestParseAlgorithm(t *testing.T) {
	t.Run("aes-gcm", func(t *testing.T) {
		alg, err := parseAlgorithm("aes-gcm")
		require.NoError(t, err)
		require.Equal(t, cryptoDomain.AESGCM, alg)
	})

	t.Run("chacha20-poly1305", func(t *testing.T) {
		alg, err := parseAlgorithm("chacha20-poly1305")
		require.NoError(t, err)
		require.Equal(t, cryptoDomain.ChaCha20, alg)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := parseAlgorithm("rot13")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid algorithm")
	})
}

func TestParseDate(t *testing.T) {
	t.Run("date-only", func(t *testing.T) {
		parsed, err := parseDate("2026-01-15")
		require.NoError(t, err)
		require.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), parsed)
	})

	t.Run("date-and-time", func(t *testing.T) {
		parsed, err := parseDate("2026-01-15 13:45:00")
		require.NoError(t, err)
		require.Equal(t, time.Date(2026, 1, 15, 13, 45, 0, 0, time.UTC), parsed)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := parseDate("15/01/2026")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid date format")
	})
}
