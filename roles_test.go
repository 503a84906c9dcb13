package catalog_test

import (
	"testing"

	"github.com/goliatone/go-catalog"
	"github.com/stretchr/testify/assert"
)

func TestIsValidAuthority(t *testing.T) {
	assert.True(t, catalog.IsValidAuthority(catalog.AuthorityAdmin))
	assert.True(t, catalog.IsValidAuthority(catalog.AuthorityOperator))
	assert.False(t, catalog.IsValidAuthority("ROLE_SUPERUSER"))
	assert.False(t, catalog.IsValidAuthority(""))
}

func TestHasAnyAuthority(t *testing.T) {
	have := []string{catalog.AuthorityOperator}

	assert.True(t, catalog.HasAnyAuthority(have, []string{catalog.AuthorityOperator, catalog.AuthorityAdmin}))
	assert.False(t, catalog.HasAnyAuthority(have, []string{catalog.AuthorityAdmin}))
	assert.False(t, catalog.HasAnyAuthority(nil, []string{catalog.AuthorityAdmin}))
	assert.False(t, catalog.HasAnyAuthority(have, nil))
}
