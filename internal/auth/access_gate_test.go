package auth

import (
	"testing"
	"time"

	"github.com/publora/publora/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testAutomationSecret = "automation-secret"
	testJWTSecret        = "jwt-signing-secret"
)

func testGate(t *testing.T) *Gate {
	t.Helper()

	gate, err := NewGate(testAutomationSecret, testJWTSecret)
	require.NoError(t, err)

	return gate
}

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	return token
}

func TestNewGate_RequiresBothSecrets(t *testing.T) {
	_, err := NewGate("", testJWTSecret)
	require.Error(t, err)

	_, err = NewGate(testAutomationSecret, "")
	require.Error(t, err)
}

func TestGate_VerifySharedSecret(t *testing.T) {
	gate := testGate(t)

	principal, err := gate.VerifySharedSecret(testAutomationSecret)
	require.NoError(t, err)
	require.Equal(t, ModeSharedSecret, principal.Mode)
	require.Empty(t, principal.UserID)

	_, err = gate.VerifySharedSecret("wrong-secret")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = gate.VerifySharedSecret("")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestGate_VerifyIdentityToken(t *testing.T) {
	gate := testGate(t)

	t.Run("valid token yields the subject", func(t *testing.T) {
		token := signedToken(t, testJWTSecret, jwt.MapClaims{
			"sub": "5aa91cde-6b17-4d0e-9273-51e1d1f3a001",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		principal, err := gate.VerifyIdentityToken(token)
		require.NoError(t, err)
		require.Equal(t, ModeIdentity, principal.Mode)
		require.Equal(t, "5aa91cde-6b17-4d0e-9273-51e1d1f3a001", principal.UserID)
	})

	t.Run("wrong signing key is rejected", func(t *testing.T) {
		token := signedToken(t, "some-other-secret", jwt.MapClaims{"sub": "user-1"})

		_, err := gate.VerifyIdentityToken(token)
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token := signedToken(t, testJWTSecret, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		_, err := gate.VerifyIdentityToken(token)
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("token without a subject is rejected", func(t *testing.T) {
		token := signedToken(t, testJWTSecret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := gate.VerifyIdentityToken(token)
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := gate.VerifyIdentityToken("not.a.jwt")
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}

func TestPrincipal_ResolveUserID(t *testing.T) {
	const userID = "5aa91cde-6b17-4d0e-9273-51e1d1f3a001"

	t.Run("identity callers are pinned to their subject", func(t *testing.T) {
		principal := Principal{Mode: ModeIdentity, UserID: userID}

		resolved, err := principal.ResolveUserID("")
		require.NoError(t, err)
		require.Equal(t, userID, resolved)

		resolved, err = principal.ResolveUserID(userID)
		require.NoError(t, err)
		require.Equal(t, userID, resolved)
	})

	t.Run("identity callers cannot act on another user", func(t *testing.T) {
		principal := Principal{Mode: ModeIdentity, UserID: userID}

		_, err := principal.ResolveUserID("0e97c34a-9d3f-4a58-8f1c-2b6e6d8a0042")

		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("shared-secret callers must name a user", func(t *testing.T) {
		principal := Principal{Mode: ModeSharedSecret}

		_, err := principal.ResolveUserID("")

		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("shared-secret callers must pass a well-formed uuid", func(t *testing.T) {
		principal := Principal{Mode: ModeSharedSecret}

		_, err := principal.ResolveUserID("bob")

		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)

		resolved, err := principal.ResolveUserID(userID)
		require.NoError(t, err)
		require.Equal(t, userID, resolved)
	})

	t.Run("unauthenticated principal resolves nothing", func(t *testing.T) {
		_, err := Principal{}.ResolveUserID(userID)
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}
