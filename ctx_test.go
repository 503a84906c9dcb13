package catalog_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-catalog"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserContextRoundTrip(t *testing.T) {
	user := &catalog.User{ID: uuid.New(), Email: "maria@gmail.com"}

	ctx := catalog.WithContext(context.Background(), user)

	found, ok := catalog.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, user, found)

	_, ok = catalog.FromContext(context.Background())
	assert.False(t, ok)
}

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := &catalog.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "maria@gmail.com"},
	}

	ctx := catalog.WithClaimsContext(context.Background(), claims)

	found, ok := catalog.GetClaims(ctx)
	assert.True(t, ok)
	assert.Equal(t, "maria@gmail.com", found.Subject())

	_, ok = catalog.GetClaims(context.Background())
	assert.False(t, ok)
}

func TestGetRouterClaims(t *testing.T) {
	claims := &catalog.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "maria@gmail.com"},
		Auths:            []string{catalog.AuthorityAdmin},
	}

	tests := []struct {
		name    string
		setupFn func() router.Context
		key     string
		wantOK  bool
	}{
		{
			name: "claims present under default key",
			setupFn: func() router.Context {
				ctx := router.NewMockContext()
				ctx.LocalsMock["user"] = claims
				return ctx
			},
			key:    "",
			wantOK: true,
		},
		{
			name: "claims present under custom key",
			setupFn: func() router.Context {
				ctx := router.NewMockContext()
				ctx.LocalsMock["token-claims"] = claims
				return ctx
			},
			key:    "token-claims",
			wantOK: true,
		},
		{
			name: "key not present",
			setupFn: func() router.Context {
				return router.NewMockContext()
			},
			key:    "user",
			wantOK: false,
		},
		{
			name: "value is wrong type",
			setupFn: func() router.Context {
				ctx := router.NewMockContext()
				ctx.LocalsMock["user"] = "not-claims"
				return ctx
			},
			key:    "user",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, ok := catalog.GetRouterClaims(tt.setupFn(), tt.key)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "maria@gmail.com", found.Subject())
			}
		})
	}
}

func TestHasAuthorityFromRouter(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.LocalsMock["user"] = &catalog.TokenClaims{
		Auths: []string{catalog.AuthorityOperator},
	}

	assert.True(t, catalog.HasAuthorityFromRouter(ctx, catalog.AuthorityOperator))
	assert.False(t, catalog.HasAuthorityFromRouter(ctx, catalog.AuthorityAdmin))

	empty := router.NewMockContext()
	assert.False(t, catalog.HasAuthorityFromRouter(empty, catalog.AuthorityAdmin))
}
