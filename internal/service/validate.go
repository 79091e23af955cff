package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^\d{10,11}$`)
	pinPattern   = regexp.MustCompile(`^\d{4}$`)
)

// newValidator returns a validator that reports json field names and
// knows the phone and pin tags.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
		return pinPattern.MatchString(fl.Field().String())
	})
	return v
}

// FieldError is one entry of the details list attached to
// INVALID_PAYLOAD and INVALID_PARAMS errors.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// fieldErrors flattens validator errors into FieldError values whose
// Field is the json path without the struct name, e.g.
// "selections[1].seatId".
func fieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Rule: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		out = append(out, FieldError{Field: path, Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// validateStruct runs v over in and converts failures to INVALID_PAYLOAD.
func validateStruct(v *validator.Validate, in any) *Error {
	if err := v.Struct(in); err != nil {
		return invalidPayload(fieldErrors(err))
	}
	return nil
}

// validateUUID reports whether id is a well-formed UUID.
func validateUUID(v *validator.Validate, id string) bool {
	return v.Var(id, "required,uuid") == nil
}
