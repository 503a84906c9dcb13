package catalog

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserStore is the repository slice the identity provider depends on
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// NewIdentityProvider creates an IdentityProvider backed by the user store
func NewIdentityProvider(store UserStore) IdentityProvider {
	return &identityProvider{
		store: store,
		// pre-computed digest burned on unknown identifiers so both failure
		// paths pay the bcrypt cost
		burnHash: RandomPasswordHash(),
	}
}

type identityProvider struct {
	store    UserStore
	burnHash string
}

// VerifyIdentity checks the identifier and password against the store. Any
// failure, unknown user or wrong password, yields the same error value.
func (p *identityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := p.store.GetByEmail(ctx, identifier)
	if err != nil {
		_ = ComparePasswordAndHash(password, p.burnHash)
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return newAuthIdentity(user), nil
}

// FindIdentityByIdentifier looks up an identity without a credential check
func (p *identityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := p.store.GetByEmail(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "identity lookup failed")
	}

	return newAuthIdentity(user), nil
}

type authIdentity struct {
	id          string
	email       string
	firstName   string
	authorities []string
}

func newAuthIdentity(user *User) *authIdentity {
	return &authIdentity{
		id:          user.ID.String(),
		email:       user.Email,
		firstName:   user.FirstName,
		authorities: user.Authorities(),
	}
}

func (a *authIdentity) ID() string            { return a.id }
func (a *authIdentity) Email() string         { return a.email }
func (a *authIdentity) FirstName() string     { return a.firstName }
func (a *authIdentity) Authorities() []string { return a.authorities }
