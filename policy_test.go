package catalog_test

import (
	"testing"

	"github.com/goliatone/go-catalog"
	"github.com/stretchr/testify/assert"
)

func TestDefaultAccessPolicy(t *testing.T) {
	policy, err := catalog.DefaultAccessPolicy()
	assert.NoError(t, err)

	tests := []struct {
		name        string
		method      string
		path        string
		public      bool
		authorities []string
	}{
		{
			name:   "token endpoint is public",
			method: "POST",
			path:   "/oauth/token",
			public: true,
		},
		{
			name:   "product reads are public",
			method: "GET",
			path:   "/products",
			public: true,
		},
		{
			name:   "product detail reads are public",
			method: "GET",
			path:   "/products/8b9c6f2a-0000-0000-0000-000000000001",
			public: true,
		},
		{
			name:   "category reads are public",
			method: "GET",
			path:   "/categories",
			public: true,
		},
		{
			name:        "product writes need operator or admin",
			method:      "POST",
			path:        "/products",
			authorities: []string{catalog.AuthorityOperator, catalog.AuthorityAdmin},
		},
		{
			name:        "product deletes need operator or admin",
			method:      "DELETE",
			path:        "/products/8b9c6f2a-0000-0000-0000-000000000001",
			authorities: []string{catalog.AuthorityOperator, catalog.AuthorityAdmin},
		},
		{
			name:        "category updates need operator or admin",
			method:      "PUT",
			path:        "/categories/8b9c6f2a-0000-0000-0000-000000000001",
			authorities: []string{catalog.AuthorityOperator, catalog.AuthorityAdmin},
		},
		{
			name:        "user reads need admin",
			method:      "GET",
			path:        "/users",
			authorities: []string{catalog.AuthorityAdmin},
		},
		{
			name:        "user writes need admin",
			method:      "POST",
			path:        "/users",
			authorities: []string{catalog.AuthorityAdmin},
		},
		{
			name:        "nested user routes need admin",
			method:      "DELETE",
			path:        "/users/8b9c6f2a-0000-0000-0000-000000000001",
			authorities: []string{catalog.AuthorityAdmin},
		},
		{
			name:   "everything else needs authentication only",
			method: "GET",
			path:   "/profile",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rule, ok := policy.Match(tc.method, tc.path)
			assert.True(t, ok, "expected a matching rule")
			assert.Equal(t, tc.public, rule.IsPublic())
			assert.Equal(t, tc.authorities, rule.RequiredAuthorities())
		})
	}
}

// method-qualified rules must win over the blanket rule for the same paths
func TestDefaultAccessPolicyOrdering(t *testing.T) {
	policy, err := catalog.DefaultAccessPolicy()
	assert.NoError(t, err)

	read, ok := policy.Match("GET", "/products/42")
	assert.True(t, ok)
	assert.True(t, read.IsPublic())

	write, ok := policy.Match("POST", "/products/42")
	assert.True(t, ok)
	assert.False(t, write.IsPublic())
	assert.NotEmpty(t, write.RequiredAuthorities())
}

func TestAccessRulePatternCoversBasePath(t *testing.T) {
	policy, err := catalog.NewAccessPolicy(
		&catalog.AccessRule{
			Patterns: []string{"/things/**"},
			Public:   true,
		},
	)
	assert.NoError(t, err)

	for _, path := range []string{"/things", "/things/", "/things/1", "/things/1/parts/2"} {
		rule, ok := policy.Match("GET", path)
		assert.True(t, ok, "expected %s to match", path)
		assert.True(t, rule.IsPublic())
	}

	_, ok := policy.Match("GET", "/thing")
	assert.False(t, ok)
}

func TestAccessPolicyMethodFilter(t *testing.T) {
	policy, err := catalog.NewAccessPolicy(
		&catalog.AccessRule{
			Methods:  []string{"GET"},
			Patterns: []string{"/widgets/**"},
			Public:   true,
		},
	)
	assert.NoError(t, err)

	_, ok := policy.Match("GET", "/widgets")
	assert.True(t, ok)

	_, ok = policy.Match("POST", "/widgets")
	assert.False(t, ok)

	// method comparison ignores case
	_, ok = policy.Match("get", "/widgets")
	assert.True(t, ok)
}

func TestNewAccessPolicyRejectsBadPattern(t *testing.T) {
	_, err := catalog.NewAccessPolicy(
		&catalog.AccessRule{Patterns: []string{"/things/["}},
	)
	assert.Error(t, err)
}
