package catalog

import (
	"context"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// FieldError is a single field level validation failure
type FieldError struct {
	Field   string `json:"fieldName"`
	Message string `json:"message"`
}

// NewValidationError wraps field errors in the shape the transport layer
// maps to 422
func NewValidationError(fieldErrors []FieldError) error {
	return errors.New("validation failed", errors.CategoryValidation).
		WithTextCode("VALIDATION_ERROR").
		WithMetadata(map[string]any{
			"fieldErrors": fieldErrors,
		})
}

// FormatValidationErrors converts an ozzo validation result into field
// errors with a stable order
func FormatValidationErrors(err error) []FieldError {
	verrs, ok := err.(validation.Errors)
	if !ok {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	fields := make([]string, 0, len(verrs))
	for field := range verrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]FieldError, 0, len(verrs))
	for _, field := range fields {
		out = append(out, FieldError{Field: field, Message: verrs[field].Error()})
	}

	return out
}

// AsValidationError runs a payload Validate method and converts any failure
// into the rich error form
func AsValidationError(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*errors.Error); ok && e.Category == errors.CategoryValidation {
		return err
	}
	return NewValidationError(FormatValidationErrors(err))
}

// UserInsertPayload is the body for creating a user
type UserInsertPayload struct {
	FirstName string   `json:"first_name" form:"first_name"`
	LastName  string   `json:"last_name" form:"last_name"`
	Email     string   `json:"email" form:"email"`
	Phone     string   `json:"phone_number" form:"phone_number"`
	Password  string   `json:"password" form:"password"`
	Roles     []string `json:"roles" form:"roles"`
}

// Validate will run validation rules
func (r UserInsertPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Roles, validation.Required, validation.By(ValidateAuthorities)),
	)
}

// UserUpdatePayload is the body for updating a user. The password is managed
// separately and never part of an update.
type UserUpdatePayload struct {
	FirstName string   `json:"first_name" form:"first_name"`
	LastName  string   `json:"last_name" form:"last_name"`
	Email     string   `json:"email" form:"email"`
	Phone     string   `json:"phone_number" form:"phone_number"`
	Roles     []string `json:"roles" form:"roles"`
}

// Validate will run validation rules
func (r UserUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Roles, validation.Required, validation.By(ValidateAuthorities)),
	)
}

// ProductPayload is the body for creating or updating a product
type ProductPayload struct {
	Name        string   `json:"name" form:"name"`
	Description string   `json:"description" form:"description"`
	Price       float64  `json:"price" form:"price"`
	ImageURL    string   `json:"image_url" form:"image_url"`
	CategoryIDs []string `json:"category_ids" form:"category_ids"`
}

// Validate will run validation rules
func (r ProductPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Price, validation.Required, validation.Min(0.01)),
		validation.Field(&r.ImageURL, is.URL),
		validation.Field(&r.CategoryIDs, validation.Required, validation.By(ValidateUUIDList)),
	)
}

// ParsedCategoryIDs returns the category ids as UUIDs. Call after Validate.
func (r ProductPayload) ParsedCategoryIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.CategoryIDs))
	for _, raw := range r.CategoryIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

// CategoryPayload is the body for creating or updating a category
type CategoryPayload struct {
	Name string `json:"name" form:"name"`
}

// Validate will run validation rules
func (r CategoryPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}

// ValidatePhoneNumber accepts an empty value or anything that parses as a
// valid phone number
func ValidatePhoneNumber(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, "US")
	if err != nil {
		return errors.New("must be a valid phone number", errors.CategoryValidation)
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number", errors.CategoryValidation)
	}

	return nil
}

// ValidateAuthorities rejects role names outside the predefined set
func ValidateAuthorities(value any) error {
	roles, _ := value.([]string)
	for _, role := range roles {
		if !IsValidAuthority(role) {
			return errors.New("unknown role: "+role, errors.CategoryValidation)
		}
	}
	return nil
}

// ValidateUUIDList rejects values that do not parse as UUIDs
func ValidateUUIDList(value any) error {
	ids, _ := value.([]string)
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return errors.New("invalid id: "+id, errors.CategoryValidation)
		}
	}
	return nil
}

// EmailRegistry is the store slice the duplicate email check needs
type EmailRegistry interface {
	EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
}

// CheckDuplicateEmail enforces email uniqueness as a field level validation
// failure. Pass uuid.Nil on insert; on update pass the record id so the
// record does not collide with itself.
func CheckDuplicateEmail(ctx context.Context, registry EmailRegistry, email string, excludeID uuid.UUID) error {
	taken, err := registry.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "email uniqueness check failed")
	}

	if taken {
		return NewValidationError([]FieldError{
			{Field: "email", Message: "email already exists"},
		})
	}

	return nil
}
