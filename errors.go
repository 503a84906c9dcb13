package catalog

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrInvalidCredentials is returned for every failed credential check. The
// same value covers unknown users and wrong passwords so a caller cannot
// tell which one occurred.
var ErrInvalidCredentials = errors.New("invalid username or password", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrInvalidClient is returned when client id/secret do not match the registry
var ErrInvalidClient = errors.New("invalid client credentials", errors.CategoryAuth).
	WithTextCode("INVALID_CLIENT").
	WithCode(errors.CodeUnauthorized)

// ErrUnsupportedGrantType is returned for any grant other than password
var ErrUnsupportedGrantType = errors.New("unsupported grant type", errors.CategoryBadInput).
	WithTextCode("UNSUPPORTED_GRANT_TYPE")

// ErrTokenExpired marks a token whose exp claim is in the past
var ErrTokenExpired = errors.New("access token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed marks a token that failed signature or structural checks
var ErrTokenMalformed = errors.New("access token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// ErrInsufficientAuthority is returned when a valid token lacks the
// authorities a route requires
var ErrInsufficientAuthority = errors.New("insufficient authority for resource", errors.CategoryAuthz).
	WithTextCode("FORBIDDEN").
	WithCode(errors.CodeForbidden)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned when a password does not match
// its stored digest
var ErrMismatchedHashAndPassword = errors.New("mismatched password and hash", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrIntegrityViolation is returned when a delete would orphan rows that
// reference the record
var ErrIntegrityViolation = errors.New("operation violates referential integrity", errors.CategoryConflict).
	WithTextCode("INTEGRITY_VIOLATION")

// ErrNoEmptyString rejects empty input where a value is required
var ErrNoEmptyString = errors.New("value should not be an empty string", errors.CategoryBadInput)

// ErrImmutableClaimMutation signals an enhancer tried to rewrite a
// registered claim
var ErrImmutableClaimMutation = errors.New("enhancer mutated immutable claim", errors.CategoryInternal)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
