package guardware_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/goliatone/go-catalog/middleware/guardware"
)

type stubClaims struct {
	subject     string
	authorities []string
}

func (s stubClaims) Subject() string       { return s.subject }
func (s stubClaims) UserID() string        { return s.subject }
func (s stubClaims) Authorities() []string { return s.authorities }
func (s stubClaims) HasAnyAuthority(authorities ...string) bool {
	for _, want := range authorities {
		if slices.Contains(s.authorities, want) {
			return true
		}
	}
	return false
}

type stubRule struct {
	public      bool
	authorities []string
}

func (s stubRule) IsPublic() bool                { return s.public }
func (s stubRule) RequiredAuthorities() []string { return s.authorities }

type stubPolicy struct {
	rule    guardware.Rule
	matched bool

	lastMethod string
	lastPath   string
}

func (s *stubPolicy) Match(method, path string) (guardware.Rule, bool) {
	s.lastMethod = method
	s.lastPath = path
	return s.rule, s.matched
}

type stubValidator struct {
	claims guardware.AuthClaims
	err    error
	calls  int
}

func (s *stubValidator) Validate(tokenString string) (guardware.AuthClaims, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

// routeMock overrides Method() and Path() from our base MockContext.
type routeMock struct {
	*router.MockContext
	method string
	path   string
}

func (m *routeMock) Method() string { return m.method }
func (m *routeMock) Path() string   { return m.path }

func newRouteMock(method, path string) *routeMock {
	return &routeMock{
		MockContext: router.NewMockContext(),
		method:      method,
		path:        path,
	}
}

func passthroughErrors(c router.Context, err error) error {
	return err
}

func TestGuardPublicRouteSkipsTokenHandling(t *testing.T) {
	policy := &stubPolicy{rule: stubRule{public: true}, matched: true}
	validator := &stubValidator{err: errors.New("should not be called")}

	middleware := guardware.New(guardware.Config{
		Policy:         policy,
		TokenValidator: validator,
		ErrorHandler:   passthroughErrors,
	})

	ctx := newRouteMock("GET", "/products")

	err := middleware(func(c router.Context) error { return nil })(ctx)
	assert.NoError(t, err)
	assert.True(t, ctx.NextCalled)
	assert.Equal(t, 0, validator.calls)
	assert.Equal(t, "GET", policy.lastMethod)
	assert.Equal(t, "/products", policy.lastPath)
}

func TestGuardProtectedRouteWithValidToken(t *testing.T) {
	claims := stubClaims{subject: "maria@gmail.com", authorities: []string{"ROLE_ADMIN"}}
	policy := &stubPolicy{rule: stubRule{authorities: []string{"ROLE_ADMIN"}}, matched: true}
	validator := &stubValidator{claims: claims}

	middleware := guardware.New(guardware.Config{
		Policy:         policy,
		TokenValidator: validator,
		ErrorHandler:   passthroughErrors,
	})

	ctx := newRouteMock("POST", "/users")
	ctx.HeadersM["Authorization"] = "Bearer valid.token.here"
	ctx.On("GetString", "Authorization", "").Return("Bearer valid.token.here")
	ctx.On("Locals", "user", claims).Return(nil)

	err := middleware(func(c router.Context) error { return nil })(ctx)
	assert.NoError(t, err)
	assert.True(t, ctx.NextCalled)
	assert.Equal(t, 1, validator.calls)
	ctx.MockContext.AssertExpectations(t)
}

func TestGuardProtectedRouteInsufficientAuthority(t *testing.T) {
	claims := stubClaims{subject: "alex@gmail.com", authorities: []string{"ROLE_OPERATOR"}}
	policy := &stubPolicy{rule: stubRule{authorities: []string{"ROLE_ADMIN"}}, matched: true}

	middleware := guardware.New(guardware.Config{
		Policy:         policy,
		TokenValidator: &stubValidator{claims: claims},
		ErrorHandler:   passthroughErrors,
	})

	ctx := newRouteMock("POST", "/users")
	ctx.On("GetString", "Authorization", "").Return("Bearer valid.token.here")

	err := middleware(func(c router.Context) error { return nil })(ctx)
	assert.ErrorIs(t, err, guardware.ErrInsufficientAuthority)
	assert.False(t, ctx.NextCalled)
}

func TestGuardProtectedRouteMissingToken(t *testing.T) {
	policy := &stubPolicy{rule: stubRule{}, matched: true}

	middleware := guardware.New(guardware.Config{
		Policy:         policy,
		TokenValidator: &stubValidator{claims: stubClaims{}},
		ErrorHandler:   passthroughErrors,
	})

	ctx := newRouteMock("GET", "/profile")
	ctx.On("GetString", "Authorization", "").Return("")

	err := middleware(func(c router.Context) error { return nil })(ctx)
	assert.ErrorIs(t, err, guardware.ErrTokenMissingOrMalformed)
	assert.False(t, ctx.NextCalled)
}

func TestGuardProtectedRouteInvalidToken(t *testing.T) {
	policy := &stubPolicy{rule: stubRule{}, matched: true}
	tokenErr := errors.New("token is expired")

	middleware := guardware.New(guardware.Config{
		Policy:         policy,
		TokenValidator: &stubValidator{err: tokenErr},
		ErrorHandler:   passthroughErrors,
	})

	ctx := newRouteMock("GET", "/profile")
	ctx.On("GetString", "Authorization", "").Return("Bearer expired.token.here")

	err := middleware(func(c router.Context) error { return nil })(ctx)
	assert.ErrorIs(t, err, tokenErr)
	assert.False(t, ctx.NextCalled)
}

// without a policy every request needs a valid token
func TestGuardWithoutPolicyRequiresToken(t *testing.T) {
	claims := stubClaims{subject: "maria@gmail.com"}

	middleware := guardware.New(guardware.Config{
		TokenValidator: &stubValidator{claims: claims},
		ErrorHandler:   passthroughErrors,
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer valid.token.here")
	ctx.On("Locals", "user", claims).Return(nil)

	err := middleware(func(c router.Context) error { return nil })(ctx)
	assert.NoError(t, err)
	assert.True(t, ctx.NextCalled)

	ctx = router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")

	err = middleware(func(c router.Context) error { return nil })(ctx)
	assert.ErrorIs(t, err, guardware.ErrTokenMissingOrMalformed)
}

func TestGuardFilterSkipsMiddleware(t *testing.T) {
	middleware := guardware.New(guardware.Config{
		TokenValidator: &stubValidator{err: errors.New("should not be called")},
		ErrorHandler:   passthroughErrors,
		Filter: func(c router.Context) bool {
			return true
		},
	})

	ctx := router.NewMockContext()

	err := middleware(func(c router.Context) error { return nil })(ctx)
	assert.NoError(t, err)
	assert.True(t, ctx.NextCalled)
}

func TestGuardCustomSuccessHandler(t *testing.T) {
	claims := stubClaims{subject: "maria@gmail.com"}
	called := false

	middleware := guardware.New(guardware.Config{
		TokenValidator: &stubValidator{claims: claims},
		ErrorHandler:   passthroughErrors,
		SuccessHandler: func(c router.Context) error {
			called = true
			return nil
		},
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer valid.token.here")
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	err := middleware(func(c router.Context) error { return nil })(ctx)
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestAuthorize(t *testing.T) {
	admin := stubClaims{authorities: []string{"ROLE_ADMIN"}}

	tests := []struct {
		name    string
		claims  guardware.AuthClaims
		rule    guardware.Rule
		wantErr error
	}{
		{"nil rule admits anyone", admin, nil, nil},
		{"empty requirements admit any principal", admin, stubRule{}, nil},
		{"matching authority", admin, stubRule{authorities: []string{"ROLE_ADMIN"}}, nil},
		{
			"any of several authorities",
			admin,
			stubRule{authorities: []string{"ROLE_OPERATOR", "ROLE_ADMIN"}},
			nil,
		},
		{
			"missing authority",
			stubClaims{authorities: []string{"ROLE_OPERATOR"}},
			stubRule{authorities: []string{"ROLE_ADMIN"}},
			guardware.ErrInsufficientAuthority,
		},
		{
			"nil claims",
			nil,
			stubRule{authorities: []string{"ROLE_ADMIN"}},
			guardware.ErrInsufficientAuthority,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := guardware.Authorize(tc.claims, tc.rule)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func generateToken(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()

	if claims["exp"] == nil {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// with no TokenValidator the guard validates locally with the signing key
func TestGuardLocalValidatorWithSigningKey(t *testing.T) {
	signingKey := []byte("test-secret")
	validToken := generateToken(t, signingKey, jwt.MapClaims{
		"sub":         "maria@gmail.com",
		"authorities": []string{"ROLE_ADMIN"},
	})

	policy := &stubPolicy{rule: stubRule{authorities: []string{"ROLE_ADMIN"}}, matched: true}

	middleware := guardware.New(guardware.Config{
		Policy:       policy,
		ErrorHandler: passthroughErrors,
		SigningKey: guardware.SigningKey{
			JWTAlg: jwt.SigningMethodHS256.Alg(),
			Key:    signingKey,
		},
	})

	ctx := newRouteMock("POST", "/users")
	ctx.On("GetString", "Authorization", "").Return("Bearer " + validToken)
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	err := middleware(func(c router.Context) error { return nil })(ctx)
	assert.NoError(t, err)
	assert.True(t, ctx.NextCalled)
	ctx.MockContext.AssertExpectations(t)
}

func TestGuardLocalValidatorDecodesAuthorities(t *testing.T) {
	signingKey := []byte("test-secret")
	operatorToken := generateToken(t, signingKey, jwt.MapClaims{
		"sub":         "alex@gmail.com",
		"authorities": []string{"ROLE_OPERATOR"},
	})

	policy := &stubPolicy{rule: stubRule{authorities: []string{"ROLE_ADMIN"}}, matched: true}

	middleware := guardware.New(guardware.Config{
		Policy:       policy,
		ErrorHandler: passthroughErrors,
		SigningKey: guardware.SigningKey{
			JWTAlg: jwt.SigningMethodHS256.Alg(),
			Key:    signingKey,
		},
	})

	ctx := newRouteMock("POST", "/users")
	ctx.On("GetString", "Authorization", "").Return("Bearer " + operatorToken)

	err := middleware(func(c router.Context) error { return nil })(ctx)
	assert.ErrorIs(t, err, guardware.ErrInsufficientAuthority)
	assert.False(t, ctx.NextCalled)
}

func TestGuardLocalValidatorRejectsExpiredToken(t *testing.T) {
	signingKey := []byte("test-secret")
	expiredToken := generateToken(t, signingKey, jwt.MapClaims{
		"sub": "maria@gmail.com",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	middleware := guardware.New(guardware.Config{
		ErrorHandler: passthroughErrors,
		SigningKey: guardware.SigningKey{
			JWTAlg: jwt.SigningMethodHS256.Alg(),
			Key:    signingKey,
		},
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer " + expiredToken)

	err := middleware(func(c router.Context) error { return nil })(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "token is expired")
	assert.False(t, ctx.NextCalled)
}

func TestGuardLocalValidatorRejectsWrongKey(t *testing.T) {
	foreignToken := generateToken(t, []byte("other-secret"), jwt.MapClaims{
		"sub": "maria@gmail.com",
	})

	middleware := guardware.New(guardware.Config{
		ErrorHandler: passthroughErrors,
		SigningKey: guardware.SigningKey{
			JWTAlg: jwt.SigningMethodHS256.Alg(),
			Key:    []byte("test-secret"),
		},
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer " + foreignToken)

	err := middleware(func(c router.Context) error { return nil })(ctx)
	assert.Error(t, err)
	assert.False(t, ctx.NextCalled)
}

func TestGetDefaultConfigPanicsWithoutKeys(t *testing.T) {
	assert.Panics(t, func() {
		guardware.GetDefaultConfig(guardware.Config{})
	})
}

func TestGetDefaultConfigDefaults(t *testing.T) {
	cfg := guardware.GetDefaultConfig(guardware.Config{
		TokenValidator: &stubValidator{},
	})

	assert.Equal(t, "user", cfg.ContextKey)
	assert.Equal(t, "header:"+router.HeaderAuthorization, cfg.TokenLookup)
	assert.Equal(t, "Bearer", cfg.AuthScheme)
	assert.NotNil(t, cfg.SuccessHandler)
	assert.NotNil(t, cfg.ErrorHandler)
}
