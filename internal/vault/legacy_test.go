package vault

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/publora/publora/internal/domain"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/chacha20poly1305"
)

func sealLegacy(t *testing.T, key, plaintext []byte) string {
	t.Helper()

	aead, err := chacha20poly1305.New(key)
	require.NoError(t, err)

	nonce := make([]byte, chacha20poly1305.NonceSize)
	_, err = rand.Read(nonce)
	require.NoError(t, err)

	blob := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(blob)
}

func TestLegacyDecrypter(t *testing.T) {
	key := make([]byte, chacha20poly1305.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	decrypter, err := NewLegacyDecrypter(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)

	t.Run("decrypts a legacy blob", func(t *testing.T) {
		blob := sealLegacy(t, key, []byte(`{"access_token":"legacy"}`))

		plaintext, err := decrypter.Decrypt(context.Background(), blob)
		require.NoError(t, err)
		require.JSONEq(t, `{"access_token":"legacy"}`, string(plaintext))
	})

	t.Run("rejects tampered blobs", func(t *testing.T) {
		blob := sealLegacy(t, key, []byte(`{"access_token":"legacy"}`))

		decoded, err := base64.StdEncoding.DecodeString(blob)
		require.NoError(t, err)
		decoded[len(decoded)-1] ^= 0x01

		_, err = decrypter.Decrypt(context.Background(), base64.StdEncoding.EncodeToString(decoded))

		var decryptionErr *domain.DecryptionError
		require.ErrorAs(t, err, &decryptionErr)
	})

	t.Run("rejects blobs that are too short", func(t *testing.T) {
		_, err := decrypter.Decrypt(context.Background(), base64.StdEncoding.EncodeToString([]byte("tiny")))

		var decryptionErr *domain.DecryptionError
		require.ErrorAs(t, err, &decryptionErr)
	})
}
