package catalog_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-catalog"
	"github.com/stretchr/testify/assert"
)

var testSigningKey = []byte("test-signing-secret")

func newTestTokenService() *catalog.TokenServiceImpl {
	return catalog.NewTokenService(testSigningKey, 3600, "go-catalog-test", nil, nil)
}

func TestTokenServiceSignAndValidate(t *testing.T) {
	svc := newTestTokenService()

	identity := testIdentity{
		id:          "user-1",
		email:       "maria@gmail.com",
		firstName:   "Maria",
		authorities: []string{catalog.AuthorityAdmin},
	}

	claims := svc.NewClaims(identity, []string{"read"})
	assert.Equal(t, "maria@gmail.com", claims.Subject())
	assert.Equal(t, []string{catalog.AuthorityAdmin}, claims.Authorities())

	token, err := svc.SignClaims(claims)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	validated, err := svc.Validate(token)
	assert.NoError(t, err)
	assert.Equal(t, "maria@gmail.com", validated.Subject())
	assert.Equal(t, []string{"read"}, validated.Scopes())
	assert.True(t, validated.HasAuthority(catalog.AuthorityAdmin))
	assert.WithinDuration(t, time.Now().Add(time.Hour), validated.Expires(), 5*time.Second)
}

func TestTokenServiceValidateExpired(t *testing.T) {
	svc := newTestTokenService()

	claims := &catalog.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "go-catalog-test",
			Subject:   "maria@gmail.com",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
		},
	}

	token, err := svc.SignClaims(claims)
	assert.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, catalog.ErrTokenExpired)
	assert.True(t, catalog.IsTokenExpiredError(err))
}

func TestTokenServiceValidateWrongKey(t *testing.T) {
	svc := newTestTokenService()
	other := catalog.NewTokenService([]byte("other-secret"), 3600, "go-catalog-test", nil, nil)

	identity := testIdentity{email: "alex@gmail.com"}
	token, err := other.SignClaims(other.NewClaims(identity, nil))
	assert.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
	assert.False(t, catalog.IsTokenExpiredError(err))
}

func TestTokenServiceValidateGarbage(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
	assert.True(t, catalog.IsMalformedError(err))
}

func TestTokenServiceValidateWrongIssuer(t *testing.T) {
	svc := newTestTokenService()
	other := catalog.NewTokenService(testSigningKey, 3600, "some-other-issuer", nil, nil)

	identity := testIdentity{email: "alex@gmail.com"}
	token, err := other.SignClaims(other.NewClaims(identity, nil))
	assert.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestTokenServiceMintsDistinctTokens(t *testing.T) {
	svc := newTestTokenService()
	identity := testIdentity{email: "alex@gmail.com"}

	first, err := svc.SignClaims(svc.NewClaims(identity, nil))
	assert.NoError(t, err)

	second, err := svc.SignClaims(svc.NewClaims(identity, nil))
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenServiceDuration(t *testing.T) {
	svc := newTestTokenService()
	assert.Equal(t, 3600, svc.Duration())
}

// loggerSpy renders log calls the way the printf-style Logger contract does
type loggerSpy struct {
	messages []string
}

func (l *loggerSpy) record(format string, args []any) {
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

func (l *loggerSpy) Debug(format string, args ...any) { l.record(format, args) }
func (l *loggerSpy) Info(format string, args ...any)  { l.record(format, args) }
func (l *loggerSpy) Warn(format string, args ...any)  { l.record(format, args) }
func (l *loggerSpy) Error(format string, args ...any) { l.record(format, args) }

func TestTokenServiceValidateUnexpectedSigningMethod(t *testing.T) {
	spy := &loggerSpy{}
	svc := catalog.NewTokenService(testSigningKey, 3600, "go-catalog-test", nil, spy)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"iss": "go-catalog-test",
		"sub": "maria@gmail.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	_, err = svc.Validate(signed)
	assert.Error(t, err)
	assert.True(t, catalog.IsMalformedError(err))

	assert.Len(t, spy.messages, 1)
	assert.Contains(t, spy.messages[0], "unexpected signing method")
	assert.Contains(t, spy.messages[0], "none")
	assert.NotContains(t, spy.messages[0], "%!")
}
