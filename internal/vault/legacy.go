package vault

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/publora/publora/internal/domain"

	"golang.org/x/crypto/chacha20poly1305"
)

// LegacyDecrypter decodes the deprecated ChaCha20-Poly1305 scheme used
// before the vault owned encryption: a single base64 blob of nonce followed
// by ciphertext under a separate legacy key. Decrypt-only; nothing ever
// writes this format again.
type LegacyDecrypter struct {
	key []byte
}

func NewLegacyDecrypter(base64Key string) (*LegacyDecrypter, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("legacy vault key is not valid base64: %w", err)
	}

	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("legacy vault key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}

	return &LegacyDecrypter{key: key}, nil
}

func (d *LegacyDecrypter) Decrypt(ctx context.Context, value string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, &domain.DecryptionError{Reason: "legacy blob is not valid base64", Err: err}
	}

	if len(blob) < chacha20poly1305.NonceSize {
		return nil, &domain.DecryptionError{Reason: "legacy blob too short"}
	}

	aead, err := chacha20poly1305.New(d.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create legacy cipher: %w", err)
	}

	nonce, ciphertext := blob[:chacha20poly1305.NonceSize], blob[chacha20poly1305.NonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, &domain.DecryptionError{Reason: "legacy authentication failed", Err: err}
	}

	return plaintext, nil
}
