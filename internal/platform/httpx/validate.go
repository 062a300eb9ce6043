package httpx

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks request payloads and reports failures as a
// ValidationError keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
	options  map[string][]string
}

// NewValidator returns a validator that names fields after their json tag.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v, options: make(map[string][]string)}
}

// RegisterOptions adds a tag that accepts only the given values. Unlike the
// builtin oneof, values may contain spaces.
func (v *Validator) RegisterOptions(tag string, values []string) error {
	allowed := slices.Clone(values)
	if err := v.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	}); err != nil {
		return fmt.Errorf("httpx: register %s: %w", tag, err)
	}
	v.options[tag] = allowed
	return nil
}

// Struct validates s.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = v.message(fe)
	}
	return &ValidationError{Fields: fields}
}

func (v *Validator) message(fe validator.FieldError) string {
	if allowed, ok := v.options[fe.Tag()]; ok {
		return "must be one of: " + strings.Join(allowed, ", ")
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
