package guardware

import (
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims decodes the wire format of an access token for guards that
// validate locally instead of delegating to a TokenValidator.
type tokenClaims struct {
	jwt.RegisteredClaims
	Scope         []string `json:"scope,omitempty"`
	Auths         []string `json:"authorities,omitempty"`
	UID           string   `json:"userId,omitempty"`
	UserFirstName string   `json:"userFirstName,omitempty"`
}

func (c *tokenClaims) Subject() string { return c.RegisteredClaims.Subject }

func (c *tokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

func (c *tokenClaims) Authorities() []string { return c.Auths }

func (c *tokenClaims) HasAnyAuthority(authorities ...string) bool {
	for _, want := range authorities {
		for _, have := range c.Auths {
			if have == want {
				return true
			}
		}
	}
	return false
}

// keyfuncValidator validates tokens with a jwt.Keyfunc built from the
// configured keys or JWK Set URLs. Signature and expiry are the only checks.
type keyfuncValidator struct {
	keyFunc jwt.Keyfunc
}

func newKeyfuncValidator(cfg Config) TokenValidator {
	return &keyfuncValidator{keyFunc: buildKeyFunc(cfg)}
}

func (v *keyfuncValidator) Validate(tokenString string) (AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, v.keyFunc)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMissingOrMalformed
	}

	return claims, nil
}

func buildKeyFunc(cfg Config) jwt.Keyfunc {
	if len(cfg.SigningKeys) > 0 || len(cfg.JWKSetURLs) > 0 {
		var givenKeys map[string]keyfunc.GivenKey
		if cfg.SigningKeys != nil {
			givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
			for kid, key := range cfg.SigningKeys {
				givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
					Algorithm: key.JWTAlg,
				})
			}
		}

		if len(cfg.JWKSetURLs) > 0 {
			kf, err := multiKeyfunc(givenKeys, cfg.JWKSetURLs)
			if err != nil {
				panic("Failed to create keyfunc from JWK Set URL: " + err.Error())
			}
			return kf
		}

		return keyfunc.NewGiven(givenKeys).Keyfunc
	}

	return signingKeyFunc(cfg.SigningKey)
}

func multiKeyfunc(givenKeys map[string]keyfunc.GivenKey, jwtSetUrls []string) (jwt.Keyfunc, error) {
	opts := keyfuncOptions(givenKeys)
	m := make(map[string]keyfunc.Options, len(jwtSetUrls))
	for _, url := range jwtSetUrls {
		m[url] = opts
	}
	mopts := keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	}
	multi, err := keyfunc.GetMultiple(m, mopts)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWT URLs: %w", err)
	}
	return multi.Keyfunc, nil
}

func keyfuncOptions(givenKeys map[string]keyfunc.GivenKey) keyfunc.Options {
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			alg, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q got: missing json type", key.JWTAlg)
			}
			if alg != key.JWTAlg {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q: got: %q", key.JWTAlg, alg)
			}
		}
		return key.Key, nil
	}
}
