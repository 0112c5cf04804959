// Package validate runs go-playground/validator struct validation and turns
// the result into per-field, operator-facing messages.
package validate

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/keyxmakerx/mailroom/internal/apperror"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their form name so messages and inline errors line
	// up with the inputs that produced them.
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return val
}

// Messages overrides the default message for "field.tag" keys, e.g.
// "templateId.required".
type Messages map[string]string

// Struct validates s and returns one message per failing field, or nil.
// Only the first failing rule of each field is reported.
func Struct(s any, overrides Messages) apperror.FieldErrors {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.FieldErrors{"_": "invalid input"}
	}

	fields := make(apperror.FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := fields[field]; seen {
			continue
		}
		if msg, ok := overrides[field+"."+fe.Tag()]; ok {
			fields[field] = msg
			continue
		}
		fields[field] = message(fe)
	}
	return fields
}

// Var validates a single value against tag, e.g. Var(addr, "required,email").
func Var(value any, tag string) bool {
	return v.Var(value, tag) == nil
}

func message(fe validator.FieldError) string {
	label := Label(fe.Field())
	param := fe.Param()
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		if isList {
			return label + " must have at least " + param + " item(s)"
		}
		return label + " must be at least " + param + " characters"
	case "max":
		if isList {
			return label + " must have at most " + param + " item(s)"
		}
		return label + " must be at most " + param + " characters"
	case "email":
		return label + " must be a valid email"
	case "len":
		return label + " must be exactly " + param + " characters"
	case "oneof":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ")
	default:
		return label + " is invalid"
	}
}

// Label turns a form field name into a sentence-case label:
// "templateId" → "Template id", "email" → "Email".
func Label(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		case r == '_' || r == '-':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
