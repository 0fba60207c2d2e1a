package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/publora/publora/internal/domain"
)

const (
	cipherKeySize   = 32
	cipherNonceSize = 12
	cipherSeparator = ":"
)

// CipherCodec encrypts and decrypts credential blobs with AES-256-GCM. The
// text encoding is base64(nonce) ":" base64(ciphertext and tag). The codec
// holds no mutable state; a fresh random nonce is generated per call.
type CipherCodec struct {
	aead cipher.AEAD
}

// NewCipherCodec builds a codec from a base64-encoded 256-bit key. Callers
// treat an error here as a fatal configuration problem, not a per-request
// one.
func NewCipherCodec(base64Key string) (*CipherCodec, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("vault key is not valid base64: %w", err)
	}

	if len(key) != cipherKeySize {
		return nil, fmt.Errorf("vault key must be %d bytes, got %d", cipherKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &CipherCodec{aead: aead}, nil
}

func (c *CipherCodec) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, cipherNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := c.aead.Seal(nil, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(nonce) +
		cipherSeparator +
		base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (c *CipherCodec) Decrypt(cipherText string) ([]byte, error) {
	nonceText, cipherPart, found := strings.Cut(cipherText, cipherSeparator)
	if !found {
		return nil, &domain.DecryptionError{Reason: "missing separator"}
	}

	nonce, err := base64.StdEncoding.DecodeString(nonceText)
	if err != nil {
		return nil, &domain.DecryptionError{Reason: "nonce is not valid base64", Err: err}
	}

	if len(nonce) != cipherNonceSize {
		return nil, &domain.DecryptionError{Reason: fmt.Sprintf("nonce must be %d bytes, got %d", cipherNonceSize, len(nonce))}
	}

	ciphertext, err := base64.StdEncoding.DecodeString(cipherPart)
	if err != nil {
		return nil, &domain.DecryptionError{Reason: "ciphertext is not valid base64", Err: err}
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, &domain.DecryptionError{Reason: "authentication failed", Err: err}
	}

	return plaintext, nil
}

// GenerateKey produces a fresh base64-encoded 256-bit vault key.
func GenerateKey() (string, error) {
	key := make([]byte, cipherKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(key), nil
}
