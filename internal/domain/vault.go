package domain

import "context"

// CredentialCipher is the symmetric authenticated codec for credential
// blobs. Encrypt output is the compact two-part text encoding
// base64(nonce) ":" base64(ciphertext and tag).
type CredentialCipher interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(cipherText string) ([]byte, error)
}

// LegacyDecrypter decodes the deprecated cipher scheme retained only for
// records written before the vault owned encryption. External collaborator
// from the vault's point of view.
type LegacyDecrypter interface {
	Decrypt(ctx context.Context, value string) ([]byte, error)
}

// CredentialResolver turns whatever is stored in the credentials field into
// a plaintext payload, reporting which format it found.
type CredentialResolver interface {
	Resolve(ctx context.Context, stored any, encryptedFlag bool) (CredentialPayload, CredentialFormat, error)
}

// RateCounter is the sliding-window counter behind the rate limiter. The
// in-memory implementation is process-local; the redis one is shared across
// instances.
type RateCounter interface {
	// Allow records a hit for the key and reports whether it is within
	// the window capacity. retryAfterSeconds is meaningful only when the
	// hit is rejected.
	Allow(ctx context.Context, key string) (allowed bool, retryAfterSeconds int, err error)
}
