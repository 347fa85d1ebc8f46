package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every service; validator caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the struct tags and folds failures into ErrValidationFailed.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return validationError("%v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return validationError("%s", strings.Join(msgs, "; "))
}

func describeField(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + fe.Param() + unitSuffix(fe)
	case "max":
		return field + " must be at most " + fe.Param() + unitSuffix(fe)
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte":
		return field + " must be at least " + fe.Param()
	case "eq":
		if fe.Field() == "TermsAccepted" {
			return "terms must be accepted"
		}
		return field + " must equal " + fe.Param()
	case "email":
		return field + " must be a valid email address"
	case "alphanum":
		return field + " may only contain letters and digits"
	default:
		return field + " is invalid"
	}
}

// unitSuffix names the unit of a min/max bound; numbers have none.
func unitSuffix(fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Map, reflect.Array:
		return " items"
	default:
		return ""
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
