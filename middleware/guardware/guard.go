package guardware

import (
	"context"
	"errors"

	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "header:" + router.HeaderAuthorization

	// ErrTokenMissingOrMalformed is returned when no token can be extracted
	// from the request
	ErrTokenMissingOrMalformed = errors.New("missing or malformed access token")
	// ErrInsufficientAuthority is returned when a valid token lacks every
	// authority the matched rule requires
	ErrInsufficientAuthority = errors.New("insufficient authority for resource")
)

// TokenValidator validates a raw token without creating an import cycle.
// It mirrors the TokenService.Validate method from the root package.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// AuthClaims is the validated token content the guard needs.
// It mirrors the AccessClaims interface from the root package.
type AuthClaims interface {
	Subject() string
	UserID() string
	Authorities() []string
	HasAnyAuthority(authorities ...string) bool
}

// Rule is a single matched authorization rule.
// It mirrors the AccessRule type from the root package.
type Rule interface {
	IsPublic() bool
	RequiredAuthorities() []string
}

// PolicyMatcher resolves the rule covering a request.
// It mirrors the AccessPolicy type from the root package.
type PolicyMatcher interface {
	Match(method, path string) (Rule, bool)
}

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler

	// Policy decides per request whether authentication is skipped and which
	// authorities are required. Requests with no matching rule require a
	// valid token.
	Policy PolicyMatcher

	// TokenValidator checks the raw token. When nil a local validator is
	// built from SigningKey, SigningKeys or JWKSetURLs.
	TokenValidator TokenValidator

	SigningKey  SigningKey
	SigningKeys map[string]SigningKey
	JWKSetURLs  []string

	ContextKey  string
	TokenLookup string
	AuthScheme  string

	// ContextEnricher propagates claims to the standard Go context after a
	// successful validation.
	ContextEnricher func(c context.Context, claims AuthClaims) context.Context
}

// SigningKey holds a verification key and the algorithm it expects
type SigningKey struct {
	JWTAlg string
	Key    any
}

// New creates the guard middleware. Every request is matched against the
// policy first; public rules bypass token handling entirely.
func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			var rule Rule
			if cfg.Policy != nil {
				var matched bool
				rule, matched = cfg.Policy.Match(ctx.Method(), ctx.Path())
				if matched && rule.IsPublic() {
					return ctx.Next()
				}
			}

			raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.TokenValidator.Validate(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := Authorize(claims, rule); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, claims)

			if cfg.ContextEnricher != nil {
				stdCtx := cfg.ContextEnricher(ctx.Context(), claims)
				ctx.SetContext(stdCtx)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// Authorize checks validated claims against a matched rule. A nil rule or a
// rule with no required authorities admits any authenticated principal.
func Authorize(claims AuthClaims, rule Rule) error {
	if rule == nil {
		return nil
	}

	required := rule.RequiredAuthorities()
	if len(required) == 0 {
		return nil
	}

	if claims == nil || !claims.HasAnyAuthority(required...) {
		return ErrInsufficientAuthority
	}

	return nil
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			switch {
			case errors.Is(err, ErrTokenMissingOrMalformed):
				return c.Status(router.StatusUnauthorized).SendString(ErrTokenMissingOrMalformed.Error())
			case errors.Is(err, ErrInsufficientAuthority):
				return c.Status(router.StatusForbidden).SendString(ErrInsufficientAuthority.Error())
			default:
				return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
			}
		}
	}

	if cfg.TokenValidator == nil {
		if cfg.SigningKey.Key == nil && len(cfg.SigningKeys) == 0 && len(cfg.JWKSetURLs) == 0 {
			panic("GUARD: middleware configuration: one of TokenValidator, SigningKey, SigningKeys, or JWKSetURLs is required.")
		}
		cfg.TokenValidator = newKeyfuncValidator(cfg)
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}
