package catalog

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Products is the product repository surface
type Products interface {
	repository.Repository[*Product]

	GetWithCategories(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, req PageRequest) (*Page[*Product], error)
	ReplaceCategoriesTx(ctx context.Context, tx bun.IDB, productID uuid.UUID, categoryIDs []uuid.UUID) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type products struct {
	repository.Repository[*Product]
	db *bun.DB
}

var _ Products = (*products)(nil)

func NewProductsRepository(db *bun.DB) Products {
	repo := repository.NewRepository[*Product](db, repository.ModelHandlers[*Product]{
		NewRecord: func() *Product { return &Product{} },
		GetID: func(p *Product) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Product, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &products{
		Repository: repo,
		db:         db,
	}
}

func (a *products) GetWithCategories(ctx context.Context, id uuid.UUID) (*Product, error) {
	record := &Product{}

	err := a.db.NewSelect().
		Model(record).
		Relation("Categories").
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

func (a *products) List(ctx context.Context, req PageRequest) (*Page[*Product], error) {
	req = req.Normalize()

	var records []*Product

	q := a.db.NewSelect().
		Model(&records).
		Relation("Categories").
		Order(sortColumn(req.Sort, productSortColumns, "name") + " ASC").
		Limit(req.Size).
		Offset(req.Offset())

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, err
	}

	return NewPage(records, req, total), nil
}

// ReplaceCategoriesTx rewrites the product category assignments inside the
// given transaction
func (a *products) ReplaceCategoriesTx(ctx context.Context, tx bun.IDB, productID uuid.UUID, categoryIDs []uuid.UUID) error {
	if _, err := tx.NewDelete().
		Model((*ProductToCategory)(nil)).
		Where("product_id = ?", productID).
		Exec(ctx); err != nil {
		return err
	}

	if len(categoryIDs) == 0 {
		return nil
	}

	rows := make([]*ProductToCategory, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		rows = append(rows, &ProductToCategory{
			ProductID:  productID,
			CategoryID: categoryID,
		})
	}

	_, err := tx.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (a *products) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*ProductToCategory)(nil)).
			Where("product_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		res, err := tx.NewDelete().
			Model((*Product)(nil)).
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

var productSortColumns = map[string]string{
	"name":  "name",
	"price": "price",
}
