package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"pethaven/internal/domain"
)

// Validator wraps go-playground/validator and reports failures as domain
// validation errors keyed by the json field name.
type Validator struct {
	cli *validator.Validate
}

// New initializes and returns a new instance of the Validator.
func New() *Validator {
	cli := validator.New(validator.WithRequiredStructEnabled())
	cli.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{cli: cli}
}

// ValidateStruct validates s and returns nil or a *domain.ValidationError.
func (v *Validator) ValidateStruct(s any) error {
	return v.format(v.cli.Struct(s))
}

// Validate checks a single value against tag and reports it under field.
func (v *Validator) Validate(field string, value any, tag string) error {
	err := v.format(v.cli.Var(value, tag))
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		for i := range ve.Fields {
			ve.Fields[i].Field = field
		}
	}
	return err
}

func (v *Validator) format(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{Fields: make([]domain.FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, domain.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "nefield":
		return "must differ from " + fe.Param()
	}
	return "failed on " + fe.Tag()
}
