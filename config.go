package catalog

import "github.com/goliatone/go-router"

// BaseConfig is a plain value implementation of Config
type BaseConfig struct {
	SigningKey    string
	SigningMethod string
	ContextKey    string
	TokenDuration int
	TokenLookup   string
	AuthScheme    string
	Issuer        string
	Audience      []string
	ClientID      string
	ClientSecret  string
	ClientScopes  []string
}

var _ Config = (*BaseConfig)(nil)

// WithDefaults fills the optional fields every deployment shares
func (c BaseConfig) WithDefaults() BaseConfig {
	if c.SigningMethod == "" {
		c.SigningMethod = "HS256"
	}
	if c.ContextKey == "" {
		c.ContextKey = "user"
	}
	if c.TokenDuration == 0 {
		c.TokenDuration = 86400
	}
	if c.TokenLookup == "" {
		c.TokenLookup = "header:" + router.HeaderAuthorization
	}
	if c.AuthScheme == "" {
		c.AuthScheme = "Bearer"
	}
	return c
}

func (c BaseConfig) GetSigningKey() string    { return c.SigningKey }
func (c BaseConfig) GetSigningMethod() string { return c.SigningMethod }
func (c BaseConfig) GetContextKey() string    { return c.ContextKey }
func (c BaseConfig) GetTokenDuration() int    { return c.TokenDuration }
func (c BaseConfig) GetTokenLookup() string   { return c.TokenLookup }
func (c BaseConfig) GetAuthScheme() string    { return c.AuthScheme }
func (c BaseConfig) GetIssuer() string        { return c.Issuer }
func (c BaseConfig) GetAudience() []string    { return c.Audience }
func (c BaseConfig) GetClientID() string      { return c.ClientID }
func (c BaseConfig) GetClientSecret() string  { return c.ClientSecret }
func (c BaseConfig) GetClientScopes() []string { return c.ClientScopes }
