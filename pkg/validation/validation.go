// Package validation wraps go-playground/validator with the field naming and error
// shape used across the storefront.
package validation

import (
	stdErrors "errors"
	"fmt"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Messages overrides the default text for a failed rule, keyed by "field.tag".
type Messages map[string]string

// Struct validates v and returns a CodeValidation error describing every failed field.
func Struct(v any) error {
	return Check(v, nil)
}

// Check is Struct with caller supplied messages. The error message is the text of the
// first failing field in declaration order.
func Check(v any, msgs Messages) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !stdErrors.As(err, &errs) || len(errs) == 0 {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}

	details := make(map[string]string, len(errs))
	first := ""
	for _, fe := range errs {
		msg := messageFor(fe, msgs)
		if _, seen := details[fe.Field()]; !seen {
			details[fe.Field()] = msg
		}
		if first == "" {
			first = msg
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, first).WithDetails(details)
}

func messageFor(fe validator.FieldError, msgs Messages) string {
	if msg, ok := msgs[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fe.Field() + " " + defaultMessage(fe)
}

func defaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "eqfield":
		return "must match " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	}
	return "is invalid"
}
