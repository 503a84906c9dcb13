package catalog

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Categories is the category repository surface
type Categories interface {
	repository.Repository[*Category]

	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	List(ctx context.Context, req PageRequest) (*Page[*Category], error)
	ExistAll(ctx context.Context, ids []uuid.UUID) (bool, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type categories struct {
	repository.Repository[*Category]
	db *bun.DB
}

var _ Categories = (*categories)(nil)

func NewCategoriesRepository(db *bun.DB) Categories {
	repo := repository.NewRepository[*Category](db, repository.ModelHandlers[*Category]{
		NewRecord: func() *Category { return &Category{} },
		GetID: func(c *Category) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Category, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
	})

	return &categories{
		Repository: repo,
		db:         db,
	}
}

func (a *categories) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	record := &Category{}

	err := a.db.NewSelect().
		Model(record).
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

func (a *categories) List(ctx context.Context, req PageRequest) (*Page[*Category], error) {
	req = req.Normalize()

	var records []*Category

	q := a.db.NewSelect().
		Model(&records).
		Order(sortColumn(req.Sort, categorySortColumns, "name") + " ASC").
		Limit(req.Size).
		Offset(req.Offset())

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, err
	}

	return NewPage(records, req, total), nil
}

// ExistAll reports whether every id resolves to a stored category
func (a *categories) ExistAll(ctx context.Context, ids []uuid.UUID) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}

	count, err := a.db.NewSelect().
		Model((*Category)(nil)).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Count(ctx)
	if err != nil {
		return false, err
	}

	return count == len(ids), nil
}

// DeleteByID removes a category. Categories still assigned to products are
// protected by the join table foreign key, which surfaces here as a
// conflict error.
func (a *categories) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Category)(nil)).
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
}

var categorySortColumns = map[string]string{
	"name": "name",
}
