package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/publora/publora/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
)

// An encoded nonce/ciphertext pair is always well over this length; anything
// shorter cannot be new-cipher text. Heuristic only — real validation is the
// decrypt attempt.
const minNewCipherLength = 50

// LooksLikeNewCipher reports whether a stored string value has the shape of
// the two-part cipher encoding.
func LooksLikeNewCipher(value string) bool {
	return len(value) > minNewCipherLength && strings.Contains(value, cipherSeparator)
}

// Classify derives the stored format of a credential value from its shape.
// The encrypted flag is only consulted for strings that are not new-cipher
// text, because it was maintained best-effort by older writers.
func Classify(stored any, encryptedFlag bool) domain.CredentialFormat {
	value, isString := storedString(stored)
	if !isString {
		return domain.FormatPlain
	}

	if LooksLikeNewCipher(value) {
		return domain.FormatNewCipher
	}

	if encryptedFlag {
		return domain.FormatLegacyCipher
	}

	return domain.FormatPlain
}

// Resolver decodes a stored credential value into a plaintext payload,
// trying each format decoder in priority order.
type Resolver struct {
	codec  domain.CredentialCipher
	legacy domain.LegacyDecrypter
}

func NewResolver(codec domain.CredentialCipher, legacy domain.LegacyDecrypter) *Resolver {
	return &Resolver{
		codec:  codec,
		legacy: legacy,
	}
}

// Resolve returns the plaintext payload and the format it was stored in.
// Cipher-shaped values that fail to decrypt are hard errors. Values that are
// neither cipher text nor parseable objects resolve to an empty payload with
// ErrNoCredentials, which display paths may ignore.
func (r *Resolver) Resolve(ctx context.Context, stored any, encryptedFlag bool) (domain.CredentialPayload, domain.CredentialFormat, error) {
	format := Classify(stored, encryptedFlag)

	switch format {
	case domain.FormatNewCipher:
		value, _ := storedString(stored)
		payload, err := r.decodeNewCipher(value)
		return payload, format, err

	case domain.FormatLegacyCipher:
		value, _ := storedString(stored)
		payload, err := r.decodeLegacy(ctx, value)
		return payload, format, err

	default:
		payload, err := decodePlain(stored)
		return payload, format, err
	}
}

func (r *Resolver) decodeNewCipher(value string) (domain.CredentialPayload, error) {
	plaintext, err := r.codec.Decrypt(value)
	if err != nil {
		return nil, err
	}

	var payload domain.CredentialPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, &domain.DecryptionError{Reason: "decrypted payload is not a JSON object", Err: err}
	}

	return payload, nil
}

func (r *Resolver) decodeLegacy(ctx context.Context, value string) (domain.CredentialPayload, error) {
	if r.legacy == nil {
		return nil, &domain.DecryptionError{Reason: "legacy cipher record but no legacy decrypter configured"}
	}

	plaintext, err := r.legacy.Decrypt(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("legacy decrypt failed: %w", err)
	}

	var payload domain.CredentialPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, &domain.DecryptionError{Reason: "legacy payload is not a JSON object", Err: err}
	}

	return payload, nil
}

func decodePlain(stored any) (domain.CredentialPayload, error) {
	switch value := stored.(type) {
	case nil:
		return domain.CredentialPayload{}, domain.ErrNoCredentials

	case map[string]any:
		return domain.CredentialPayload(value), nil

	case domain.CredentialPayload:
		return value, nil

	case bson.M:
		return domain.CredentialPayload(value), nil

	case bson.D:
		return domain.CredentialPayload(value.Map()), nil

	case string:
		var payload domain.CredentialPayload
		if err := json.Unmarshal([]byte(value), &payload); err != nil {
			return domain.CredentialPayload{}, domain.ErrNoCredentials
		}
		return payload, nil

	default:
		return domain.CredentialPayload{}, domain.ErrNoCredentials
	}
}

func storedString(stored any) (string, bool) {
	value, ok := stored.(string)
	return value, ok
}
