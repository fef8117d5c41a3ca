package serrors

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	BaseError
	Field string `json:"field"`
}

// ValidationErrors maps a struct field name to its first failure.
type ValidationErrors map[string]ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, err := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", field, err.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewFieldRequiredError(field, localeKey string) *ValidationError {
	return &ValidationError{
		BaseError: BaseError{
			Code:      "FIELD_REQUIRED",
			Message:   fmt.Sprintf("%s is required", field),
			LocaleKey: localeKey,
		},
		Field: field,
	}
}

func (v *ValidationError) Error() string {
	return v.Message
}

// ProcessValidatorErrors converts validator failures into field errors.
// localeKey may return "" when the field has no translation.
func ProcessValidatorErrors(errs validator.ValidationErrors, localeKey func(field string) string) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		msg := fmt.Sprintf("%s failed on %q", field, fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s failed on %q (%s)", field, fe.Tag(), fe.Param())
		}
		out[field] = ValidationError{
			BaseError: BaseError{
				Code:      "VALIDATION_" + strings.ToUpper(fe.Tag()),
				Message:   msg,
				LocaleKey: localeKey(field),
			},
			Field: field,
		}
	}
	return out
}
