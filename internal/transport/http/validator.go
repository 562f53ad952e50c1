package http

import (
	"untrivially-api/internal/domain"

	"github.com/go-playground/validator/v10"
)

// requestValidator adapts validator/v10 to echo.Validator.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{validate: validator.New()}
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func (v *requestValidator) validateVar(value interface{}, tag string) error {
	return v.validate.Var(value, tag)
}

// validateImageField checks a PATCH image URL only when a non-null value was sent.
func (v *requestValidator) validateImageField(f domain.Field[string]) error {
	if !f.Set || f.Value == nil {
		return nil
	}
	return v.validateVar(*f.Value, "url")
}
