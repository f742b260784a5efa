// Package validation checks request structs with validator tags and reports
// one customer-facing message per offending field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"capriccio/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Messages overrides the message of a field, or of a field and tag when the
// key is "field.tag".
type Messages map[string]string

// Struct validates s. It returns nil or a *model.ValidationError.
func Struct(s any, messages Messages) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	verr := &model.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), message(fe, messages))
	}
	return verr
}

// Var validates a single value against tag.
func Var(field string, value any, tag, msg string) error {
	if err := validate.Var(value, tag); err != nil {
		return model.NewValidationError(field, msg)
	}
	return nil
}

func message(fe validator.FieldError, messages Messages) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := messages[fe.Field()]; ok {
		return msg
	}

	switch fe.Tag() {
	case "required", "required_if":
		return "Este campo es obligatorio."
	case "min":
		return fmt.Sprintf("Debe tener al menos %s caracteres.", fe.Param())
	case "max":
		return fmt.Sprintf("Debe tener como máximo %s caracteres.", fe.Param())
	case "number", "numeric":
		return "Debe contener solo números."
	case "email":
		return "Formato de correo electrónico inválido."
	case "url":
		return "Debe ser una URL válida."
	case "oneof":
		return fmt.Sprintf("Debe ser uno de: %s.", fe.Param())
	}
	return "Valor inválido."
}
