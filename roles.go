package catalog

// Authority is a role name as embedded in token claims
type Authority = string

const (
	// AuthorityAdmin can manage users and the whole catalog
	AuthorityAdmin Authority = "ROLE_ADMIN"
	// AuthorityOperator can mutate products and categories
	AuthorityOperator Authority = "ROLE_OPERATOR"
)

// KnownAuthorities returns every predefined authority
func KnownAuthorities() []Authority {
	return []Authority{
		AuthorityOperator,
		AuthorityAdmin,
	}
}

// IsValidAuthority checks the name against the predefined set
func IsValidAuthority(authority string) bool {
	switch authority {
	case AuthorityAdmin, AuthorityOperator:
		return true
	default:
		return false
	}
}

// HasAnyAuthority reports whether the two sets intersect
func HasAnyAuthority(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
