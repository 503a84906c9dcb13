package catalog

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/goliatone/go-errors"
)

// AccessRule binds request methods and path patterns to the authorities
// allowed through. Empty Methods matches every method; empty Authorities with
// Public false means any authenticated principal passes.
type AccessRule struct {
	Methods     []string
	Patterns    []string
	Authorities []string
	Public      bool

	globs []glob.Glob
	bases []string
}

// IsPublic reports whether the rule skips authentication entirely
func (r *AccessRule) IsPublic() bool {
	return r.Public
}

// RequiredAuthorities returns the authorities the rule demands. A nil result
// on a non public rule means authentication alone is enough.
func (r *AccessRule) RequiredAuthorities() []string {
	return r.Authorities
}

func (r *AccessRule) compile() error {
	r.globs = make([]glob.Glob, 0, len(r.Patterns))
	r.bases = make([]string, 0, len(r.Patterns))

	for _, pattern := range r.Patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return errors.Wrap(err, errors.CategoryBadInput, "invalid access rule pattern").
				WithMetadata(map[string]any{"pattern": pattern})
		}
		r.globs = append(r.globs, g)

		// "/products/**" should also cover the bare "/products" path, which
		// the compiled glob alone does not
		if base, ok := strings.CutSuffix(pattern, "/**"); ok && base != "" {
			r.bases = append(r.bases, base)
		}
	}

	return nil
}

func (r *AccessRule) matches(method, path string) bool {
	if !r.matchesMethod(method) {
		return false
	}

	for _, g := range r.globs {
		if g.Match(path) {
			return true
		}
	}

	for _, base := range r.bases {
		if path == base {
			return true
		}
	}

	return false
}

func (r *AccessRule) matchesMethod(method string) bool {
	if len(r.Methods) == 0 {
		return true
	}

	for _, m := range r.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}

	return false
}

// AccessPolicy is an ordered rule list evaluated first match wins
type AccessPolicy struct {
	rules []*AccessRule
}

// NewAccessPolicy compiles the given rules, preserving their order
func NewAccessPolicy(rules ...*AccessRule) (*AccessPolicy, error) {
	for _, rule := range rules {
		if err := rule.compile(); err != nil {
			return nil, err
		}
	}
	return &AccessPolicy{rules: rules}, nil
}

// Match returns the first rule covering the method and path. The default
// policy ends with a catch all, so ok is false only for custom policies.
func (p *AccessPolicy) Match(method, path string) (*AccessRule, bool) {
	for _, rule := range p.rules {
		if rule.matches(method, path) {
			return rule, true
		}
	}
	return nil, false
}

// DefaultAccessPolicy is the authorization table for the catalog API:
// the token endpoint and catalog reads are public, catalog writes need the
// operator or admin role, user management needs admin, and everything else
// just needs a valid token.
func DefaultAccessPolicy() (*AccessPolicy, error) {
	return NewAccessPolicy(
		&AccessRule{
			Patterns: []string{"/oauth/token"},
			Public:   true,
		},
		&AccessRule{
			Methods:  []string{"GET"},
			Patterns: []string{"/products/**", "/categories/**"},
			Public:   true,
		},
		&AccessRule{
			Patterns:    []string{"/products/**", "/categories/**"},
			Authorities: []string{AuthorityOperator, AuthorityAdmin},
		},
		&AccessRule{
			Patterns:    []string{"/users/**"},
			Authorities: []string{AuthorityAdmin},
		},
		&AccessRule{
			Patterns: []string{"/**"},
		},
	)
}
