package guardware_test

import (
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-catalog/middleware/guardware"
)

func TestExtractTokenFromHeader(t *testing.T) {
	extractors := guardware.GetExtractors("header:Authorization", "Bearer")

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer abc.def.ghi")

	raw, err := guardware.ExtractRawTokenFromContext(ctx, extractors)
	assert.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", raw)
}

func TestExtractTokenFromHeaderSchemeIsCaseInsensitive(t *testing.T) {
	extractors := guardware.GetExtractors("header:Authorization", "Bearer")

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("bearer abc.def.ghi")

	raw, err := guardware.ExtractRawTokenFromContext(ctx, extractors)
	assert.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", raw)
}

func TestExtractTokenFromHeaderWrongScheme(t *testing.T) {
	extractors := guardware.GetExtractors("header:Authorization", "Bearer")

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Basic dXNlcjpwYXNz")

	_, err := guardware.ExtractRawTokenFromContext(ctx, extractors)
	assert.ErrorIs(t, err, guardware.ErrTokenMissingOrMalformed)
}

func TestExtractTokenFromHeaderMissing(t *testing.T) {
	extractors := guardware.GetExtractors("header:Authorization", "Bearer")

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")

	_, err := guardware.ExtractRawTokenFromContext(ctx, extractors)
	assert.ErrorIs(t, err, guardware.ErrTokenMissingOrMalformed)
}

func TestExtractTokenFromQuery(t *testing.T) {
	extractors := guardware.GetExtractors("query:auth_token")

	ctx := router.NewMockContext()
	ctx.QueriesM["auth_token"] = "abc.def.ghi"

	raw, err := guardware.ExtractRawTokenFromContext(ctx, extractors)
	assert.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", raw)
}

func TestExtractTokenFromParam(t *testing.T) {
	extractors := guardware.GetExtractors("param:token")

	ctx := router.NewMockContext()
	ctx.ParamsM["token"] = "abc.def.ghi"

	raw, err := guardware.ExtractRawTokenFromContext(ctx, extractors)
	assert.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", raw)
}

func TestExtractTokenFromCookie(t *testing.T) {
	extractors := guardware.GetExtractors("cookie:access_token")

	ctx := router.NewMockContext()
	ctx.CookiesM["access_token"] = "abc.def.ghi"

	raw, err := guardware.ExtractRawTokenFromContext(ctx, extractors)
	assert.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", raw)
}

// later lookups act as fallbacks when earlier ones yield nothing
func TestExtractTokenLookupChain(t *testing.T) {
	extractors := guardware.GetExtractors("header:Authorization,cookie:access_token", "Bearer")

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")
	ctx.CookiesM["access_token"] = "abc.def.ghi"

	raw, err := guardware.ExtractRawTokenFromContext(ctx, extractors)
	assert.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", raw)
}

func TestGetExtractorsCount(t *testing.T) {
	extractors := guardware.GetExtractors("header:Authorization,query:token,param:jwt,cookie:jwt_cookie")
	assert.Len(t, extractors, 4)

	extractors = guardware.GetExtractors("header:Authorization")
	assert.Len(t, extractors, 1)
}
