package domain

// Algorithm represents the cryptographic algorithm used for encryption.
//
// All supported algorithms provide Authenticated Encryption with Associated Data
// (AEAD), ensuring both confidentiality and authenticity of encrypted data.
//
// Algorithm selection guidelines:
//   - Use AESGCM on modern CPUs with AES-NI hardware acceleration
//   - Use ChaCha20 on systems without AES-NI
//   - Both provide equivalent 256-bit security when used correctly
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	//
	// Uses a 256-bit key, a 12-byte nonce, and a 16-byte authentication tag.
	// Hardware accelerated on most modern Intel, AMD, and ARM processors.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	//
	// Uses a 256-bit key, a 12-byte nonce, and a 16-byte authentication tag.
	// Constant-time software implementation, resistant to timing attacks.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the required size in bytes for all keys (master keys, KEKs, and
// field keys). Both supported algorithms use 256-bit keys.
const KeySize = 32
