package application

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-rubric/internal/domain"
)

// isoDateLayout is the only date format accepted for evaluations. Dates in
// this layout sort lexically in chronological order.
const isoDateLayout = "2006-01-02"

// NewValidator returns a validator with the rubric validators registered
// and field names reported by their yaml tag.
func NewValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(yamlFieldName)

	if err := RegisterRubricValidators(v); err != nil {
		return nil, err
	}
	return v, nil
}

// RegisterRubricValidators adds the isodate and scalekind validators.
func RegisterRubricValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("isodate", validateISODate); err != nil {
		return fmt.Errorf("failed to register isodate validator: %w", err)
	}

	if err := v.RegisterValidation("scalekind", validateScaleKind); err != nil {
		return fmt.Errorf("failed to register scalekind validator: %w", err)
	}

	return nil
}

// validateISODate accepts calendar dates in YYYY-MM-DD form.
func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(isoDateLayout, fl.Field().String())
	return err == nil
}

// validateScaleKind accepts the known indicator scale kinds.
func validateScaleKind(fl validator.FieldLevel) bool {
	return domain.ScaleKind(fl.Field().String()).Valid()
}

func yamlFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// toValidationError converts validator failures into a ValidationError with
// one message per failing field. Errors of any other type are returned
// unchanged.
func toValidationError(entity string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := domain.NewValidationError(entity)
	for _, fe := range fieldErrs {
		verr.AddError(describeFieldError(fe))
	}
	return verr
}

// describeFieldError renders one failed rule. The namespace drops the root
// struct name so messages read "student.code is required".
func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "isodate":
		return fmt.Sprintf("%s must be a YYYY-MM-DD date, got %q", field, fe.Value())
	case "scalekind":
		return fmt.Sprintf("%s has unknown scale %q", field, fe.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
