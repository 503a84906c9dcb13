package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// UserFinder is the store slice a token enhancer needs
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// NewUserTokenEnhancer returns a TokenEnhancer that looks up the full user
// record for the grant subject and appends the userId and userFirstName
// claims before the token is signed.
func NewUserTokenEnhancer(users UserFinder) TokenEnhancer {
	return &userTokenEnhancer{users: users}
}

type userTokenEnhancer struct {
	users UserFinder
}

func (e *userTokenEnhancer) Enhance(ctx context.Context, identity Identity, claims *TokenClaims) error {
	user, err := e.users.GetByEmail(ctx, identity.Email())
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to load user for token enhancement")
	}

	claims.UID = user.ID.String()
	claims.UserFirstName = user.FirstName

	return nil
}

type noopTokenEnhancer struct{}

func (noopTokenEnhancer) Enhance(ctx context.Context, identity Identity, claims *TokenClaims) error {
	return nil
}

func normalizeTokenEnhancer(e TokenEnhancer) TokenEnhancer {
	if e == nil {
		return noopTokenEnhancer{}
	}
	return e
}

// immutableClaimsSnapshot captures the registered claims before an enhancer
// runs so mutations can be rejected afterwards. Enhancers may only append
// enhancement fields.
type immutableClaimsSnapshot struct {
	subject     string
	issuer      string
	audience    []string
	issuedAt    time.Time
	hasIssuedAt bool
	expiresAt   time.Time
	hasExpires  bool
}

func captureImmutableClaims(claims *TokenClaims) immutableClaimsSnapshot {
	var audienceCopy []string
	if len(claims.RegisteredClaims.Audience) > 0 {
		audienceCopy = append(audienceCopy, claims.RegisteredClaims.Audience...)
	}

	snap := immutableClaimsSnapshot{
		subject:  claims.RegisteredClaims.Subject,
		issuer:   claims.RegisteredClaims.Issuer,
		audience: audienceCopy,
	}

	if claims.RegisteredClaims.IssuedAt != nil {
		snap.issuedAt = claims.RegisteredClaims.IssuedAt.Time
		snap.hasIssuedAt = true
	}

	if claims.RegisteredClaims.ExpiresAt != nil {
		snap.expiresAt = claims.RegisteredClaims.ExpiresAt.Time
		snap.hasExpires = true
	}

	return snap
}

func (snap immutableClaimsSnapshot) validate(claims *TokenClaims) error {
	if claims.RegisteredClaims.Subject != snap.subject {
		return immutableClaimViolation("sub")
	}

	if claims.RegisteredClaims.Issuer != snap.issuer {
		return immutableClaimViolation("iss")
	}

	if !audienceEqual(claims.RegisteredClaims.Audience, snap.audience) {
		return immutableClaimViolation("aud")
	}

	if err := compareNumericDate(claims.RegisteredClaims.IssuedAt, snap.issuedAt, snap.hasIssuedAt, "iat"); err != nil {
		return err
	}

	if err := compareNumericDate(claims.RegisteredClaims.ExpiresAt, snap.expiresAt, snap.hasExpires, "exp"); err != nil {
		return err
	}

	return nil
}

func compareNumericDate(date *jwt.NumericDate, expected time.Time, expectedSet bool, field string) error {
	if !expectedSet {
		if date != nil {
			return immutableClaimViolation(field)
		}
		return nil
	}

	if date == nil || !date.Time.Equal(expected) {
		return immutableClaimViolation(field)
	}

	return nil
}

func audienceEqual(a jwt.ClaimStrings, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func immutableClaimViolation(field string) error {
	clone := ErrImmutableClaimMutation.Clone()
	if clone == nil {
		return ErrImmutableClaimMutation
	}
	clone.Message = fmt.Sprintf("immutable claim mutated: %s", field)
	clone.Source = ErrImmutableClaimMutation
	return clone.WithMetadata(map[string]any{"claim": field})
}
