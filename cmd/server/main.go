package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-catalog"
	"github.com/goliatone/go-router"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type serverConfig struct {
	Addr          string   `envconfig:"ADDR" default:":8080"`
	DSN           string   `envconfig:"DSN" default:"file:catalog.db?_pragma=foreign_keys(1)"`
	SigningKey    string   `envconfig:"SIGNING_KEY" default:"dev-signing-secret"`
	TokenDuration int      `envconfig:"TOKEN_DURATION" default:"86400"`
	TokenIssuer   string   `envconfig:"TOKEN_ISSUER" default:"go-catalog"`
	ClientID      string   `envconfig:"CLIENT_ID" default:"catalog-web"`
	ClientSecret  string   `envconfig:"CLIENT_SECRET" default:"catalog-web-secret"`
	ClientScopes  []string `envconfig:"CLIENT_SCOPES" default:"read,write"`
	Seed          bool     `envconfig:"SEED" default:"true"`
}

func main() {
	var spec serverConfig
	if err := envconfig.Process("catalog", &spec); err != nil {
		log.Fatal(err)
	}

	cfg := catalog.BaseConfig{
		SigningKey:    spec.SigningKey,
		TokenDuration: spec.TokenDuration,
		Issuer:        spec.TokenIssuer,
		ClientID:      spec.ClientID,
		ClientSecret:  spec.ClientSecret,
		ClientScopes:  spec.ClientScopes,
	}.WithDefaults()

	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, spec.DSN)
	if err != nil {
		log.Fatal(err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	db.RegisterModel(catalog.JoinModels()...)

	if err := catalog.RunMigrations(ctx, db); err != nil {
		log.Fatal(err)
	}

	repos := catalog.NewRepositoryManager(db)
	repos.MustValidate()

	if spec.Seed {
		if err := seed(ctx, repos); err != nil {
			log.Fatal(err)
		}
	}

	tokens := catalog.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenDuration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		nil,
	)

	provider := catalog.NewIdentityProvider(repos.Users())

	issuer, err := catalog.NewTokenIssuer(cfg, provider,
		catalog.WithTokenService(tokens),
		catalog.WithTokenEnhancer(catalog.NewUserTokenEnhancer(repos.Users())),
	)
	if err != nil {
		log.Fatal(err)
	}

	policy, err := catalog.DefaultAccessPolicy()
	if err != nil {
		log.Fatal(err)
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       "go-catalog",
			StrictRouting: false,
			CaseSensitive: true,
		}))
	})

	srv.Router().Use(catalog.RouteGuard(cfg, tokens, policy, nil))

	catalog.NewTokenController(issuer).RegisterRoutes(srv.Router())
	catalog.NewCatalogController(repos).RegisterRoutes(srv.Router())

	srv.Serve(spec.Addr)

	waitExitSignal()
}

// seed loads the base roles, two known accounts, and a starter catalog. Every
// record id is derived from a natural key so reseeding is idempotent.
func seed(ctx context.Context, repos catalog.RepositoryManager) error {
	roles := map[string]*catalog.Role{}
	for _, authority := range catalog.KnownAuthorities() {
		id, err := hashid.NewUUID(authority)
		if err != nil {
			return err
		}

		role, err := repos.Roles().GetByAuthority(ctx, authority)
		if err == nil {
			roles[authority] = role
			continue
		}

		role = &catalog.Role{ID: id, Authority: authority}
		err = repos.RunInTx(ctx, nil, func(txCtx context.Context, tx bun.Tx) error {
			_, err := repos.Roles().CreateTx(txCtx, tx, role)
			return err
		})
		if err != nil {
			return err
		}
		roles[authority] = role
	}

	seedUsers := []struct {
		firstName string
		lastName  string
		email     string
		password  string
		roles     []string
	}{
		{"Alex", "Brown", "alex@gmail.com", "123456", []string{catalog.AuthorityOperator}},
		{"Maria", "Green", "maria@gmail.com", "123456", []string{catalog.AuthorityOperator, catalog.AuthorityAdmin}},
	}

	for _, su := range seedUsers {
		if _, err := repos.Users().GetByEmail(ctx, su.email); err == nil {
			continue
		}

		id, err := hashid.NewUUID(su.email)
		if err != nil {
			return err
		}

		hash, err := catalog.HashPassword(su.password)
		if err != nil {
			return err
		}

		user := &catalog.User{
			ID:           id,
			FirstName:    su.firstName,
			LastName:     su.lastName,
			Email:        su.email,
			PasswordHash: hash,
		}

		err = repos.RunInTx(ctx, nil, func(txCtx context.Context, tx bun.Tx) error {
			if _, err := repos.Users().CreateTx(txCtx, tx, user); err != nil {
				return err
			}

			ids := make([]uuid.UUID, 0, len(su.roles))
			for _, authority := range su.roles {
				ids = append(ids, roles[authority].ID)
			}

			return repos.Users().ReplaceRolesTx(txCtx, tx, user.ID, ids)
		})
		if err != nil {
			return err
		}
	}

	seedCategories := []string{"Books", "Electronics", "Computers"}
	categories := map[string]*catalog.Category{}
	for _, name := range seedCategories {
		id, err := hashid.NewUUID("category:" + name)
		if err != nil {
			return err
		}

		category, err := repos.Categories().GetByID(ctx, id)
		if err == nil {
			categories[name] = category
			continue
		}

		category = &catalog.Category{ID: id, Name: name}
		err = repos.RunInTx(ctx, nil, func(txCtx context.Context, tx bun.Tx) error {
			_, err := repos.Categories().CreateTx(txCtx, tx, category)
			return err
		})
		if err != nil {
			return err
		}
		categories[name] = category
	}

	seedProducts := []struct {
		name       string
		price      float64
		categories []string
	}{
		{"The Lord of the Rings", 90.5, []string{"Books"}},
		{"Smart TV", 2190.0, []string{"Electronics"}},
		{"Macbook Pro", 1250.0, []string{"Computers"}},
	}

	for _, sp := range seedProducts {
		id, err := hashid.NewUUID("product:" + sp.name)
		if err != nil {
			return err
		}

		if _, err := repos.Products().GetWithCategories(ctx, id); err == nil {
			continue
		}

		product := &catalog.Product{
			ID:    id,
			Name:  sp.name,
			Price: sp.price,
		}

		err = repos.RunInTx(ctx, nil, func(txCtx context.Context, tx bun.Tx) error {
			if _, err := repos.Products().CreateTx(txCtx, tx, product); err != nil {
				return err
			}

			ids := make([]uuid.UUID, 0, len(sp.categories))
			for _, name := range sp.categories {
				ids = append(ids, categories[name].ID)
			}

			return repos.Products().ReplaceCategoriesTx(txCtx, tx, product.ID, ids)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
