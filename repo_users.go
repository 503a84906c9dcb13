package catalog

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user repository surface
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetWithRoles(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context, req PageRequest) (*Page[*User], error)
	EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	ReplaceRolesTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, roleIDs []uuid.UUID) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}

	err := tx.NewSelect().
		Model(record).
		Relation("Roles").
		Where("?TableAlias.email = ?", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetWithRoles(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{}

	err := a.db.NewSelect().
		Model(record).
		Relation("Roles").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) List(ctx context.Context, req PageRequest) (*Page[*User], error) {
	req = req.Normalize()

	var records []*User

	q := a.db.NewSelect().
		Model(&records).
		Relation("Roles").
		Order(sortColumn(req.Sort, userSortColumns, "first_name") + " ASC").
		Limit(req.Size).
		Offset(req.Offset())

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, err
	}

	return NewPage(records, req, total), nil
}

// EmailTaken reports whether another user already registered the email.
// Pass uuid.Nil on insert so no record is excluded.
func (a *users) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	q := a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", strings.TrimSpace(email))

	if excludeID != uuid.Nil {
		q = q.Where("?TableAlias.id != ?", excludeID)
	}

	count, err := q.Count(ctx)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// ReplaceRolesTx rewrites the user role assignments inside the given
// transaction
func (a *users) ReplaceRolesTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, roleIDs []uuid.UUID) error {
	if _, err := tx.NewDelete().
		Model((*UserToRole)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx); err != nil {
		return err
	}

	if len(roleIDs) == 0 {
		return nil
	}

	rows := make([]*UserToRole, 0, len(roleIDs))
	for _, roleID := range roleIDs {
		rows = append(rows, &UserToRole{
			UserID: userID,
			RoleID: roleID,
		})
	}

	_, err := tx.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (a *users) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*UserToRole)(nil)).
			Where("user_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		res, err := tx.NewDelete().
			Model((*User)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return mapConstraintViolation(err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if affected == 0 {
			return repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}

		return nil
	})
}

var userSortColumns = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
	"name":      "first_name",
}

// sortColumn resolves a requested sort field against a whitelist so request
// input never reaches the query as raw SQL
func sortColumn(requested string, allowed map[string]string, fallback string) string {
	if col, ok := allowed[strings.TrimSpace(requested)]; ok {
		return col
	}
	return fallback
}

// mapConstraintViolation converts driver level constraint failures into the
// conflict error the transport layer maps to 409
func mapConstraintViolation(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "constraint") {
		return ErrIntegrityViolation
	}
	return err
}
