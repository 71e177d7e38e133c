// Package validation wires go-playground/validator into Echo's
// request validation hook.
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/riya-shete/csv-analyzer/internal/apperrors"
)

// Validator implements echo.Validator on top of struct tags.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate checks a bound request struct and converts tag failures into
// a ValidationError whose message is safe to return to the client.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidation("Invalid request body.")
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, messageFor(fe))
	}
	return apperrors.NewValidation(strings.Join(messages, " "))
}

func messageFor(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", capitalize(field))
	case "max":
		return fmt.Sprintf("%s is too long. Maximum length is %s characters.", capitalize(field), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", capitalize(field), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", capitalize(field))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
