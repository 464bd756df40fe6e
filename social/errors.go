package social

import (
	"github.com/goliatone/go-errors"
)

// ErrInvalidState means the OAuth state parameter failed signature or
// decryption checks.
var ErrInvalidState = errors.New("invalid oauth state", errors.CategoryAuth).
	WithTextCode("INVALID_OAUTH_STATE").
	WithCode(errors.CodeUnauthorized)

// ErrStateExpired means the state was valid but past its TTL.
var ErrStateExpired = errors.New("oauth state expired", errors.CategoryAuth).
	WithTextCode("OAUTH_STATE_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ProviderError wraps an upstream provider failure. These surface as
// generic upstream errors; no retry is performed.
func ProviderError(provider, op string, status int, code, desc string) error {
	msg := provider + " " + op + " failed"
	if desc != "" {
		msg += ": " + desc
	}

	return errors.New(msg, errors.CategoryOperation).
		WithTextCode("OAUTH_PROVIDER_ERROR").
		WithMetadata(map[string]any{
			"provider":    provider,
			"operation":   op,
			"status_code": status,
			"error_code":  code,
		})
}
