package catalog

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/goliatone/go-errors"
)

// GrantTypePassword is the only grant the token endpoint accepts
const GrantTypePassword = "password"

// TokenRequest carries the parsed body of a token exchange call plus the
// client credentials taken from the Authorization header or the form.
type TokenRequest struct {
	GrantType    string `json:"grant_type" form:"grant_type"`
	Username     string `json:"username" form:"username"`
	Password     string `json:"password" form:"password"`
	Scope        string `json:"scope" form:"scope"`
	ClientID     string `json:"client_id" form:"client_id"`
	ClientSecret string `json:"client_secret" form:"client_secret"`
}

// RequestedScopes splits the space separated scope field
func (r TokenRequest) RequestedScopes() []string {
	return strings.Fields(r.Scope)
}

// TokenResponse is the token endpoint payload
type TokenResponse struct {
	AccessToken   string `json:"access_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int    `json:"expires_in"`
	Scope         string `json:"scope,omitempty"`
	UserID        string `json:"userId,omitempty"`
	UserFirstName string `json:"userFirstName,omitempty"`
}

// TokenMinter is the slice of the token service the issuer needs
type TokenMinter interface {
	NewClaims(identity Identity, scopes []string) *TokenClaims
	SignClaims(claims *TokenClaims) (string, error)
	Duration() int
}

// Issuer implements the password grant token exchange
type Issuer struct {
	provider IdentityProvider
	minter   TokenMinter
	enhancer TokenEnhancer
	config   Config
	logger   Logger
}

// NewTokenIssuer creates an Issuer backed by the given identity provider
func NewTokenIssuer(config Config, provider IdentityProvider, opts ...func(*Issuer)) (*Issuer, error) {
	if config == nil {
		return nil, errors.New("token issuer requires a config", errors.CategoryBadInput)
	}

	if provider == nil {
		return nil, errors.New("token issuer requires an identity provider", errors.CategoryBadInput)
	}

	issuer := &Issuer{
		provider: provider,
		config:   config,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		opt(issuer)
	}

	if issuer.minter == nil {
		issuer.minter = &TokenServiceImpl{
			signingKey:    []byte(config.GetSigningKey()),
			tokenDuration: config.GetTokenDuration(),
			issuer:        config.GetIssuer(),
			audience:      config.GetAudience(),
			logger:        issuer.logger,
		}
	}

	issuer.enhancer = normalizeTokenEnhancer(issuer.enhancer)

	return issuer, nil
}

// WithLogger sets the issuer logger
func WithLogger(logger Logger) func(*Issuer) {
	return func(i *Issuer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithTokenService sets the token service used to mint and sign claims
func WithTokenService(minter TokenMinter) func(*Issuer) {
	return func(i *Issuer) {
		i.minter = minter
	}
}

// WithTokenEnhancer sets the enhancer run before signing
func WithTokenEnhancer(enhancer TokenEnhancer) func(*Issuer) {
	return func(i *Issuer) {
		i.enhancer = enhancer
	}
}

// Exchange authenticates the request and mints an access token. Failures in
// client auth or user credentials are reported uniformly so the response does
// not reveal which part of the check failed.
func (i *Issuer) Exchange(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	if req.GrantType != GrantTypePassword {
		i.logger.Warn("token exchange rejected grant type: %s", req.GrantType)
		return nil, ErrUnsupportedGrantType
	}

	if err := i.authenticateClient(req); err != nil {
		return nil, err
	}

	identity, err := i.provider.VerifyIdentity(ctx, req.Username, req.Password)
	if err != nil {
		i.logger.Warn("token exchange credential check failed for subject: %s", req.Username)
		return nil, err
	}

	scopes, err := i.grantedScopes(req.RequestedScopes())
	if err != nil {
		return nil, err
	}

	claims := i.minter.NewClaims(identity, scopes)

	snapshot := captureImmutableClaims(claims)

	if err := i.enhancer.Enhance(ctx, identity, claims); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "token enhancement failed")
	}

	if err := snapshot.validate(claims); err != nil {
		return nil, err
	}

	accessToken, err := i.minter.SignClaims(claims)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:   accessToken,
		TokenType:     "bearer",
		ExpiresIn:     i.minter.Duration(),
		Scope:         strings.Join(scopes, " "),
		UserID:        claims.UID,
		UserFirstName: claims.UserFirstName,
	}, nil
}

// authenticateClient checks client id and secret in constant time
func (i *Issuer) authenticateClient(req TokenRequest) error {
	idOK := subtle.ConstantTimeCompare([]byte(req.ClientID), []byte(i.config.GetClientID()))
	secretOK := subtle.ConstantTimeCompare([]byte(req.ClientSecret), []byte(i.config.GetClientSecret()))

	if idOK&secretOK != 1 {
		i.logger.Warn("token exchange rejected client: %s", req.ClientID)
		return ErrInvalidClient
	}

	return nil
}

// grantedScopes intersects the requested scopes with the scopes registered
// for the client. An empty request grants every registered scope.
func (i *Issuer) grantedScopes(requested []string) ([]string, error) {
	registered := i.config.GetClientScopes()

	if len(requested) == 0 {
		granted := make([]string, len(registered))
		copy(granted, registered)
		return granted, nil
	}

	allowed := make(map[string]bool, len(registered))
	for _, s := range registered {
		allowed[s] = true
	}

	granted := make([]string, 0, len(requested))
	for _, s := range requested {
		if !allowed[s] {
			return nil, errors.New("invalid scope requested", errors.CategoryBadInput).
				WithTextCode("INVALID_SCOPE").
				WithMetadata(map[string]any{"scope": s})
		}
		granted = append(granted, s)
	}

	return granted, nil
}
