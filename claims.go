package catalog

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims represents the validated contents of an access token
type AccessClaims interface {
	Subject() string
	UserID() string
	FirstName() string
	Scopes() []string
	Authorities() []string
	HasScope(scope string) bool
	HasAuthority(authority string) bool
	HasAnyAuthority(authorities ...string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// TokenClaims is the concrete implementation of AccessClaims. The grant
// subject is the user email; UID and UserFirstName are the enhancement
// claims appended at issuance time.
type TokenClaims struct {
	jwt.RegisteredClaims
	Scope         []string `json:"scope,omitempty"`
	Auths         []string `json:"authorities,omitempty"`
	UID           string   `json:"userId,omitempty"`
	UserFirstName string   `json:"userFirstName,omitempty"`
}

// Verify interface compliance
var _ AccessClaims = (*TokenClaims)(nil)

// Subject returns the subject claim
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the enhanced user id claim, falling back to the subject
func (c *TokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// FirstName returns the enhanced first name claim
func (c *TokenClaims) FirstName() string {
	return c.UserFirstName
}

// Scopes returns the scopes granted with the token
func (c *TokenClaims) Scopes() []string {
	return c.Scope
}

// Authorities returns the role names embedded in the token
func (c *TokenClaims) Authorities() []string {
	return c.Auths
}

// HasScope checks a single granted scope
func (c *TokenClaims) HasScope(scope string) bool {
	for _, s := range c.Scope {
		if s == scope {
			return true
		}
	}
	return false
}

// HasAuthority checks a single role claim
func (c *TokenClaims) HasAuthority(authority string) bool {
	for _, a := range c.Auths {
		if a == authority {
			return true
		}
	}
	return false
}

// HasAnyAuthority reports whether the token carries at least one of the
// given roles
func (c *TokenClaims) HasAnyAuthority(authorities ...string) bool {
	return HasAnyAuthority(c.Auths, authorities)
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// ensureTokenID assigns a random jti so two tokens minted for the same
// subject in the same second still differ.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
