package services

import (
	"errors"
	"fmt"

	"ecofinds/internal/models"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.IsCategory(fl.Field().String())
	})
	return v
}

// validateStruct runs the struct tags and turns failures into a *ValidationError
// keyed by the field's form name.
func validateStruct(v *validator.Validate, s any, labels map[string]string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}
	vErr := &ValidationError{Fields: make(map[string]string)}
	for _, fe := range fieldErrs {
		label := labels[fe.Field()]
		if label == "" {
			label = fe.Field()
		}
		vErr.Fields[fe.Field()] = fieldMessage(label, fe)
	}
	return vErr
}

func fieldMessage(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "email":
		return label + " must be a valid email address"
	case "url":
		return label + " must be a valid URL"
	case "numeric":
		return label + " must be a number"
	case "category":
		return label + " must be one of the listed categories"
	default:
		return label + " is invalid"
	}
}
