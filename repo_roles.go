package catalog

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Roles is the role repository surface
type Roles interface {
	repository.Repository[*Role]

	GetByAuthority(ctx context.Context, authority string) (*Role, error)
	GetByAuthorityTx(ctx context.Context, tx bun.IDB, authority string) (*Role, error)
	ListAll(ctx context.Context) ([]*Role, error)
}

type roles struct {
	repository.Repository[*Role]
	db *bun.DB
}

var _ Roles = (*roles)(nil)

func NewRolesRepository(db *bun.DB) Roles {
	repo := repository.NewRepository[*Role](db, repository.ModelHandlers[*Role]{
		NewRecord: func() *Role { return &Role{} },
		GetID: func(r *Role) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Role, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "authority"
		},
	})

	return &roles{
		Repository: repo,
		db:         db,
	}
}

func (a *roles) GetByAuthority(ctx context.Context, authority string) (*Role, error) {
	return a.GetByAuthorityTx(ctx, a.db, authority)
}

func (a *roles) GetByAuthorityTx(ctx context.Context, tx bun.IDB, authority string) (*Role, error) {
	record := &Role{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.authority = ?", strings.TrimSpace(authority)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"authority": authority,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *roles) ListAll(ctx context.Context) ([]*Role, error) {
	var records []*Role

	err := a.db.NewSelect().
		Model(&records).
		Order("authority ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}
