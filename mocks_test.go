package catalog_test

import (
	"context"

	"github.com/goliatone/go-catalog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// testIdentity is a plain Identity value for tests
type testIdentity struct {
	id          string
	email       string
	firstName   string
	authorities []string
}

func (t testIdentity) ID() string            { return t.id }
func (t testIdentity) Email() string         { return t.email }
func (t testIdentity) FirstName() string     { return t.firstName }
func (t testIdentity) Authorities() []string { return t.authorities }

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (catalog.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(catalog.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (catalog.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(catalog.Identity)
	return identity, args.Error(1)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*catalog.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*catalog.User)
	return user, args.Error(1)
}

type MockEmailRegistry struct {
	mock.Mock
}

func (m *MockEmailRegistry) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}
