package domain

import "time"

// Credential payload keys. Stored payloads are normalized to snake_case on
// every write; readers still tolerate camelCase spellings left behind by
// older producers.
const (
	CredentialKeyAccessToken           = "access_token"
	CredentialKeyRefreshToken          = "refresh_token"
	CredentialKeyAPIKey                = "api_key"
	CredentialKeyAccessTokenExpiresAt  = "access_token_expires_at"
	CredentialKeyRefreshTokenExpiresAt = "refresh_token_expires_at"
	CredentialKeyClientID              = "client_id"
	CredentialKeyClientSecret          = "client_secret"
)

// camelCase aliases accepted on read, mapped to their canonical spelling.
var credentialKeyAliases = map[string]string{
	"accessToken":           CredentialKeyAccessToken,
	"refreshToken":          CredentialKeyRefreshToken,
	"apiKey":                CredentialKeyAPIKey,
	"accessTokenExpiresAt":  CredentialKeyAccessTokenExpiresAt,
	"refreshTokenExpiresAt": CredentialKeyRefreshTokenExpiresAt,
	"clientId":              CredentialKeyClientID,
	"clientSecret":          CredentialKeyClientSecret,
}

// CredentialPayload is a decrypted credential object. It is a plain map so
// unrelated fields written by connection flows survive refresh merges.
type CredentialPayload map[string]any

// Normalized returns a copy with alias keys rewritten to their canonical
// snake_case spelling. When both spellings are present the canonical one
// wins.
func (p CredentialPayload) Normalized() CredentialPayload {
	normalized := make(CredentialPayload, len(p))

	for key, value := range p {
		canonical, isAlias := credentialKeyAliases[key]
		if !isAlias {
			normalized[key] = value
			continue
		}
		if _, exists := p[canonical]; !exists {
			normalized[canonical] = value
		}
	}

	return normalized
}

func (p CredentialPayload) stringValue(canonical string) string {
	if value, ok := p[canonical].(string); ok && value != "" {
		return value
	}
	for alias, target := range credentialKeyAliases {
		if target != canonical {
			continue
		}
		if value, ok := p[alias].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func (p CredentialPayload) AccessToken() string {
	return p.stringValue(CredentialKeyAccessToken)
}

func (p CredentialPayload) RefreshToken() string {
	return p.stringValue(CredentialKeyRefreshToken)
}

func (p CredentialPayload) APIKey() string {
	return p.stringValue(CredentialKeyAPIKey)
}

func (p CredentialPayload) ClientID() string {
	return p.stringValue(CredentialKeyClientID)
}

func (p CredentialPayload) ClientSecret() string {
	return p.stringValue(CredentialKeyClientSecret)
}

func (p CredentialPayload) IsEmpty() bool {
	return len(p) == 0
}

// CredentialFormat classifies how a stored credential value is encoded.
type CredentialFormat string

const (
	FormatPlain        CredentialFormat = "plain"
	FormatLegacyCipher CredentialFormat = "legacy_cipher"
	FormatNewCipher    CredentialFormat = "new_cipher"
)

// OAuthClientConfig is the client id/secret pair a refresh call presents to
// the platform. Sourced from the integration's own metadata first, process
// configuration second.
type OAuthClientConfig struct {
	ClientID     string
	ClientSecret string
}

// RefreshOutcome is what a platform strategy learned from the token
// endpoint. An empty RotatedRefreshToken means the platform kept the
// original refresh token, so its expiry anchor must not move.
type RefreshOutcome struct {
	AccessToken          string
	AccessTokenLifetime  time.Duration
	RotatedRefreshToken  string
	RefreshTokenLifetime time.Duration
	MetadataUpdates      map[string]any
}
