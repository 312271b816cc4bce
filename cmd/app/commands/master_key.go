package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
)

// RunCreateMasterKey generates a cryptographically secure 32-byte master key
// for envelope encryption, wraps it with the configured KMS key and prints the
// environment variables to configure it. Key material is zeroed after
// encoding.
//
// If keyID is empty, a default ID in format "master-key-YYYY-MM-DD" is used.
// For local development use kmsProvider="localsecrets" with
// kmsKeyURI="base64key://...". Never use localsecrets in production.
func RunCreateMasterKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	writer io.Writer,
	keyID, kmsProvider, kmsKeyURI string,
) error {
	if kmsProvider == "" || kmsKeyURI == "" {
		return fmt.Errorf(
			"--kms-provider and --kms-key-uri are required\n\n" +
				"For local development, use:\n" +
				"  --kms-provider=localsecrets --kms-key-uri=\"base64key://<32-byte-base64-key>\"\n\n" +
				"For production, use cloud KMS providers:\n" +
				"  --kms-provider=gcpkms --kms-key-uri=\"gcpkms://projects/.../cryptoKeys/...\"\n" +
				"  --kms-provider=awskms --kms-key-uri=\"awskms:///alias/...\"\n" +
				"  --kms-provider=azurekeyvault --kms-key-uri=\"azurekeyvault://...\"",
		)
	}

	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().Format("2006-01-02"))
	}

	masterKey := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer cryptoDomain.Zero(masterKey)

	keeperInterface, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeperInterface.Close(); closeErr != nil {
			_, _ = fmt.Fprintf(writer, "Warning: failed to close KMS keeper: %v\n", closeErr)
		}
	}()

	keeper, ok := keeperInterface.(interface {
		Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	})
	if !ok {
		return fmt.Errorf("KMS keeper does not support encryption")
	}

	ciphertext, err := keeper.Encrypt(ctx, masterKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt master key with KMS: %w", err)
	}

	encodedKey := base64.StdEncoding.EncodeToString(ciphertext)

	_, _ = fmt.Fprintln(writer, "# Master Key Configuration (KMS Mode)")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=%q\n", kmsProvider)
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=%q\n", kmsKeyURI)
	_, _ = fmt.Fprintf(writer, "MASTER_KEYS=%q\n", fmt.Sprintf("%s:%s", keyID, encodedKey))
	_, _ = fmt.Fprintf(writer, "ACTIVE_MASTER_KEY_ID=%q\n", keyID)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "# For key rotation, wrap each key with the same KMS key and append it:")
	_, _ = fmt.Fprintf(writer, "# MASTER_KEYS=\"%s:%s,new-key:<base64-kms-ciphertext>\"\n", keyID, encodedKey)
	_, _ = fmt.Fprintln(writer, "# ACTIVE_MASTER_KEY_ID=\"new-key\"")

	return nil
}
