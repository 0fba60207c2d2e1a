package auth

import (
	"crypto/subtle"
	"fmt"

	"github.com/publora/publora/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthMode says which of the two mutually exclusive authentication modes a
// request passed through.
type AuthMode string

const (
	// ModeSharedSecret is the trusted-automation path: a static header
	// secret, no implicit identity. The caller must name the target user
	// explicitly in the request body.
	ModeSharedSecret AuthMode = "shared_secret"

	// ModeIdentity is the dashboard path: a per-user bearer token whose
	// subject is the only user the caller may act on.
	ModeIdentity AuthMode = "identity"
)

// Principal is the authenticated caller attached to a request.
type Principal struct {
	Mode   AuthMode
	UserID string // set only in identity mode
}

// ResolveUserID decides which user an operation targets. Identity callers
// are pinned to their own token subject; a conflicting explicit user_id is
// rejected rather than silently overridden. Shared-secret callers have no
// implicit identity and must supply a well-formed user_id.
func (p Principal) ResolveUserID(requestedUserID string) (string, error) {
	switch p.Mode {
	case ModeIdentity:
		if requestedUserID != "" && requestedUserID != p.UserID {
			return "", domain.NewValidationError("user_id does not match the authenticated user")
		}
		return p.UserID, nil

	case ModeSharedSecret:
		if requestedUserID == "" {
			return "", domain.NewValidationError("user_id is required")
		}
		if _, err := uuid.Parse(requestedUserID); err != nil {
			return "", domain.NewValidationError("user_id must be a valid uuid")
		}
		return requestedUserID, nil

	default:
		return "", domain.ErrUnauthenticated
	}
}

// Gate authenticates inbound requests against the shared automation secret
// or the identity provider's signed tokens.
type Gate struct {
	automationSecret  []byte
	identityJWTSecret []byte
}

func NewGate(automationSecret, identityJWTSecret string) (*Gate, error) {
	if automationSecret == "" {
		return nil, fmt.Errorf("automation secret is not configured")
	}
	if identityJWTSecret == "" {
		return nil, fmt.Errorf("identity jwt secret is not configured")
	}

	return &Gate{
		automationSecret:  []byte(automationSecret),
		identityJWTSecret: []byte(identityJWTSecret),
	}, nil
}

// VerifySharedSecret checks the x-api-key header value in constant time.
func (g *Gate) VerifySharedSecret(provided string) (Principal, error) {
	if subtle.ConstantTimeCompare([]byte(provided), g.automationSecret) != 1 {
		return Principal{}, domain.ErrUnauthenticated
	}

	return Principal{Mode: ModeSharedSecret}, nil
}

// VerifyIdentityToken validates a bearer token issued by the identity
// provider and extracts the subject as the caller's user id.
func (g *Gate) VerifyIdentityToken(tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return g.identityJWTSecret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, domain.ErrUnauthenticated
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return Principal{}, domain.ErrUnauthenticated
	}

	return Principal{Mode: ModeIdentity, UserID: subject}, nil
}
