package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "github.com/frahmantamala/gym-management/internal"
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

// Struct validates v against its `validate` tags and converts failures into
// a VALIDATION_FAILED AppError listing every offending field.
func Struct(v interface{}) *apperrors.AppError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("validation failed", apperrors.ErrCodeValidationFailed).WithCause(err)
	}

	details := apperrors.ValidationErrors{Errors: make([]apperrors.ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		details.Errors = append(details.Errors, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("%s %s", fe.Field(), message(fe)),
			Code:    strings.ToUpper(fe.Tag()),
		})
	}
	return apperrors.NewValidationError("Validation failed", apperrors.ErrCodeValidationFailed).WithDetails(details)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if", "required_without":
		return "is required for this request"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
