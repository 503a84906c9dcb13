package catalog

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// writeTimeout bounds mutating repository calls made from a handler
const writeTimeout = 10 * time.Second

// RouteRegistrar captures the router methods used by the controllers
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// TokenController exposes the password grant token endpoint
type TokenController struct {
	issuer TokenIssuer
	Logger Logger
}

// NewTokenController creates the token endpoint controller
func NewTokenController(issuer TokenIssuer) *TokenController {
	return &TokenController{
		issuer: issuer,
		Logger: defLogger{},
	}
}

// RegisterRoutes registers the token endpoint
func (a *TokenController) RegisterRoutes(group RouteRegistrar) {
	group.Post("/oauth/token", a.TokenExchange)
}

// TokenExchange handles POST /oauth/token. Client credentials come from the
// Basic Authorization header or, failing that, the form body.
func (a *TokenController) TokenExchange(ctx router.Context) error {
	payload := new(TokenRequest)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("TokenExchange error parsing payload: %s", err)
		return WriteError(ctx, a.Logger,
			errors.Wrap(err, errors.CategoryBadInput, "unable to parse token request"))
	}

	if clientID, clientSecret, ok := basicClientCredentials(ctx); ok {
		payload.ClientID = clientID
		payload.ClientSecret = clientSecret
	}

	response, err := a.issuer.Exchange(ctx.Context(), *payload)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, response)
}

func basicClientCredentials(ctx router.Context) (string, string, bool) {
	header := ctx.GetString(router.HeaderAuthorization, "")

	const prefix = "Basic "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	clientID, clientSecret, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}

	return clientID, clientSecret, true
}

// CatalogController exposes CRUD routes for products, categories and users
type CatalogController struct {
	repos  RepositoryManager
	Logger Logger
}

// NewCatalogController creates the CRUD controller
func NewCatalogController(repos RepositoryManager) *CatalogController {
	return &CatalogController{
		repos:  repos,
		Logger: defLogger{},
	}
}

// RegisterRoutes registers every CRUD route
func (a *CatalogController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/products", a.ListProducts)
	group.Get("/products/:id", a.GetProduct)
	group.Post("/products", a.CreateProduct)
	group.Put("/products/:id", a.UpdateProduct)
	group.Delete("/products/:id", a.DeleteProduct)

	group.Get("/categories", a.ListCategories)
	group.Get("/categories/:id", a.GetCategory)
	group.Post("/categories", a.CreateCategory)
	group.Put("/categories/:id", a.UpdateCategory)
	group.Delete("/categories/:id", a.DeleteCategory)

	group.Get("/users", a.ListUsers)
	group.Get("/users/:id", a.GetUser)
	group.Post("/users", a.CreateUser)
	group.Put("/users/:id", a.UpdateUser)
	group.Delete("/users/:id", a.DeleteUser)
}

func (a *CatalogController) pageRequest(ctx router.Context) PageRequest {
	return PageRequest{
		Page: ctx.QueryInt("page", 0),
		Size: ctx.QueryInt("size", DefaultPageSize),
		Sort: ctx.Query("sort", ""),
	}.Normalize()
}

func pathID(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("invalid id in path", errors.CategoryBadInput).
			WithMetadata(map[string]any{"id": raw})
	}
	return id, nil
}

func (a *CatalogController) ListProducts(ctx router.Context) error {
	page, err := a.repos.Products().List(ctx.Context(), a.pageRequest(ctx))
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, MapPage(page, NewProductDTO))
}

func (a *CatalogController) GetProduct(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	product, err := a.repos.Products().GetWithCategories(ctx.Context(), id)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, NewProductDTO(product))
}

func (a *CatalogController) CreateProduct(ctx router.Context) error {
	payload := new(ProductPayload)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, a.Logger,
			errors.Wrap(err, errors.CategoryBadInput, "unable to parse product payload"))
	}

	if err := AsValidationError(payload.Validate()); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx.Context(), writeTimeout)
	defer cancel()

	categoryIDs := payload.ParsedCategoryIDs()
	if err := a.requireCategories(reqCtx, categoryIDs); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	record := &Product{
		ID:          uuid.New(),
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		ImageURL:    payload.ImageURL,
	}

	err := a.repos.RunInTx(reqCtx, nil, func(txCtx context.Context, tx bun.Tx) error {
		if _, err := a.repos.Products().CreateTx(txCtx, tx, record); err != nil {
			return err
		}
		return a.repos.Products().ReplaceCategoriesTx(txCtx, tx, record.ID, categoryIDs)
	})
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	created, err := a.repos.Products().GetWithCategories(reqCtx, record.ID)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusCreated, NewProductDTO(created))
}

func (a *CatalogController) UpdateProduct(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	payload := new(ProductPayload)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, a.Logger,
			errors.Wrap(err, errors.CategoryBadInput, "unable to parse product payload"))
	}

	if err := AsValidationError(payload.Validate()); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx.Context(), writeTimeout)
	defer cancel()

	if _, err := a.repos.Products().GetWithCategories(reqCtx, id); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	categoryIDs := payload.ParsedCategoryIDs()
	if err := a.requireCategories(reqCtx, categoryIDs); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	record := &Product{
		ID:          id,
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		ImageURL:    payload.ImageURL,
	}

	err = a.repos.RunInTx(reqCtx, nil, func(txCtx context.Context, tx bun.Tx) error {
		if _, err := a.repos.Products().UpdateTx(txCtx, tx, record, repository.UpdateByID(id.String())); err != nil {
			return err
		}
		return a.repos.Products().ReplaceCategoriesTx(txCtx, tx, id, categoryIDs)
	})
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	updated, err := a.repos.Products().GetWithCategories(reqCtx, id)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, NewProductDTO(updated))
}

func (a *CatalogController) DeleteProduct(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx.Context(), writeTimeout)
	defer cancel()

	if err := a.repos.Products().DeleteByID(reqCtx, id); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.NoContent(router.StatusNoContent)
}

func (a *CatalogController) requireCategories(ctx context.Context, ids []uuid.UUID) error {
	ok, err := a.repos.Categories().ExistAll(ctx, ids)
	if err != nil {
		return err
	}
	if !ok {
		return NewValidationError([]FieldError{
			{Field: "category_ids", Message: "unknown category id"},
		})
	}
	return nil
}

func (a *CatalogController) ListCategories(ctx router.Context) error {
	page, err := a.repos.Categories().List(ctx.Context(), a.pageRequest(ctx))
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, MapPage(page, NewCategoryDTO))
}

func (a *CatalogController) GetCategory(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	category, err := a.repos.Categories().GetByID(ctx.Context(), id)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, NewCategoryDTO(category))
}

func (a *CatalogController) CreateCategory(ctx router.Context) error {
	payload := new(CategoryPayload)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, a.Logger,
			errors.Wrap(err, errors.CategoryBadInput, "unable to parse category payload"))
	}

	if err := AsValidationError(payload.Validate()); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx.Context(), writeTimeout)
	defer cancel()

	record := &Category{
		ID:   uuid.New(),
		Name: payload.Name,
	}

	err := a.repos.RunInTx(reqCtx, nil, func(txCtx context.Context, tx bun.Tx) error {
		_, err := a.repos.Categories().CreateTx(txCtx, tx, record)
		return err
	})
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	created, err := a.repos.Categories().GetByID(reqCtx, record.ID)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusCreated, NewCategoryDTO(created))
}

func (a *CatalogController) UpdateCategory(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	payload := new(CategoryPayload)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, a.Logger,
			errors.Wrap(err, errors.CategoryBadInput, "unable to parse category payload"))
	}

	if err := AsValidationError(payload.Validate()); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx.Context(), writeTimeout)
	defer cancel()

	if _, err := a.repos.Categories().GetByID(reqCtx, id); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	record := &Category{
		ID:   id,
		Name: payload.Name,
	}

	err = a.repos.RunInTx(reqCtx, nil, func(txCtx context.Context, tx bun.Tx) error {
		_, err := a.repos.Categories().UpdateTx(txCtx, tx, record, repository.UpdateByID(id.String()))
		return err
	})
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	updated, err := a.repos.Categories().GetByID(reqCtx, id)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, NewCategoryDTO(updated))
}

func (a *CatalogController) DeleteCategory(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx.Context(), writeTimeout)
	defer cancel()

	if err := a.repos.Categories().DeleteByID(reqCtx, id); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.NoContent(router.StatusNoContent)
}

func (a *CatalogController) ListUsers(ctx router.Context) error {
	page, err := a.repos.Users().List(ctx.Context(), a.pageRequest(ctx))
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, MapPage(page, NewUserDTO))
}

func (a *CatalogController) GetUser(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	user, err := a.repos.Users().GetWithRoles(ctx.Context(), id)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, NewUserDTO(user))
}

func (a *CatalogController) CreateUser(ctx router.Context) error {
	payload := new(UserInsertPayload)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, a.Logger,
			errors.Wrap(err, errors.CategoryBadInput, "unable to parse user payload"))
	}

	if err := AsValidationError(payload.Validate()); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx.Context(), writeTimeout)
	defer cancel()

	if err := CheckDuplicateEmail(reqCtx, a.repos.Users(), payload.Email, uuid.Nil); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	passwordHash, err := HashPassword(payload.Password)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	record := &User{
		ID:           uuid.New(),
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Email:        payload.Email,
		Phone:        payload.Phone,
		PasswordHash: passwordHash,
	}

	err = a.repos.RunInTx(reqCtx, nil, func(txCtx context.Context, tx bun.Tx) error {
		if _, err := a.repos.Users().CreateTx(txCtx, tx, record); err != nil {
			return err
		}

		roleIDs, err := a.resolveRoleIDs(txCtx, tx, payload.Roles)
		if err != nil {
			return err
		}

		return a.repos.Users().ReplaceRolesTx(txCtx, tx, record.ID, roleIDs)
	})
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	created, err := a.repos.Users().GetWithRoles(reqCtx, record.ID)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusCreated, NewUserDTO(created))
}

func (a *CatalogController) UpdateUser(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	payload := new(UserUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, a.Logger,
			errors.Wrap(err, errors.CategoryBadInput, "unable to parse user payload"))
	}

	if err := AsValidationError(payload.Validate()); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx.Context(), writeTimeout)
	defer cancel()

	if _, err := a.repos.Users().GetWithRoles(reqCtx, id); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	if err := CheckDuplicateEmail(reqCtx, a.repos.Users(), payload.Email, id); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	record := &User{
		ID:        id,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Phone:     payload.Phone,
	}

	err = a.repos.RunInTx(reqCtx, nil, func(txCtx context.Context, tx bun.Tx) error {
		if _, err := a.repos.Users().UpdateTx(txCtx, tx, record, repository.UpdateByID(id.String())); err != nil {
			return err
		}

		roleIDs, err := a.resolveRoleIDs(txCtx, tx, payload.Roles)
		if err != nil {
			return err
		}

		return a.repos.Users().ReplaceRolesTx(txCtx, tx, id, roleIDs)
	})
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	updated, err := a.repos.Users().GetWithRoles(reqCtx, id)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, NewUserDTO(updated))
}

func (a *CatalogController) DeleteUser(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx.Context(), writeTimeout)
	defer cancel()

	if err := a.repos.Users().DeleteByID(reqCtx, id); err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.NoContent(router.StatusNoContent)
}

func (a *CatalogController) resolveRoleIDs(ctx context.Context, tx bun.IDB, authorities []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(authorities))
	for _, authority := range authorities {
		role, err := a.repos.Roles().GetByAuthorityTx(ctx, tx, authority)
		if err != nil {
			return nil, err
		}
		ids = append(ids, role.ID)
	}
	return ids, nil
}
