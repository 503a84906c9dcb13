package catalog

import (
	"net/http"

	"github.com/goliatone/go-catalog/middleware/guardware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteGuard builds the authorization middleware from the policy table and
// the token service. Public rules bypass token handling, everything else
// needs a signed, unexpired token carrying a required authority.
func RouteGuard(cfg Config, tokens TokenService, policy *AccessPolicy, logger Logger) router.MiddlewareFunc {
	if logger == nil {
		logger = defLogger{}
	}

	return guardware.New(guardware.Config{
		Policy:          policyAdapter{policy: policy},
		TokenValidator:  validatorAdapter{tokens: tokens},
		ContextKey:      cfg.GetContextKey(),
		TokenLookup:     cfg.GetTokenLookup(),
		AuthScheme:      cfg.GetAuthScheme(),
		ContextEnricher: ContextEnricherAdapter,
		ErrorHandler: func(c router.Context, err error) error {
			return WriteError(c, logger, asGuardError(err))
		},
	})
}

type policyAdapter struct {
	policy *AccessPolicy
}

func (p policyAdapter) Match(method, path string) (guardware.Rule, bool) {
	rule, ok := p.policy.Match(method, path)
	if !ok {
		return nil, false
	}
	return rule, true
}

type validatorAdapter struct {
	tokens TokenService
}

func (v validatorAdapter) Validate(tokenString string) (guardware.AuthClaims, error) {
	claims, err := v.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func asGuardError(err error) error {
	switch {
	case errors.Is(err, guardware.ErrTokenMissingOrMalformed):
		return ErrTokenMalformed
	case errors.Is(err, guardware.ErrInsufficientAuthority):
		return ErrInsufficientAuthority
	case IsTokenExpiredError(err):
		return ErrTokenExpired
	case IsMalformedError(err):
		return ErrTokenMalformed
	default:
		return err
	}
}

// StatusForError maps an error to the HTTP status of its category
func StatusForError(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	switch richErr.Category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case errors.CategoryBadInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the readable message plus machine facing codes
type ErrorBody struct {
	Message     string       `json:"message"`
	TextCode    string       `json:"text_code,omitempty"`
	FieldErrors []FieldError `json:"fieldErrors,omitempty"`
}

// WriteError logs the failure and renders the error envelope with the
// status of its category. Raw errors never reach the client.
func WriteError(c router.Context, logger Logger, err error) error {
	if logger == nil {
		logger = defLogger{}
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	logger.Info("request error: %s category: %v details: %s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	body := ErrorBody{
		Message:  richErr.Message,
		TextCode: richErr.TextCode,
	}

	if fieldErrors, ok := richErr.Metadata["fieldErrors"].([]FieldError); ok {
		body.FieldErrors = fieldErrors
	}

	return c.JSON(StatusForError(richErr), ErrorResponse{Error: body})
}
