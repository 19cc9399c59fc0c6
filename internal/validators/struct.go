package validators

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Struct validates s against its `validate` tags and reports failures as a
// ValidationError listing each offending field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return httperr.Validation("invalid_request", err.Error(), nil)
	}

	fields := make([]FieldError, 0, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.TrimPrefix(fe.Namespace(), rootName(fe.Namespace())+".")
		fields = append(fields, FieldError{Field: name, Rule: fe.Tag()})
		names = append(names, name)
	}

	return httperr.Validation("invalid_request", "Invalid fields: "+strings.Join(names, ", "), fields)
}

func rootName(ns string) string {
	root, _, _ := strings.Cut(ns, ".")
	return root
}
