package models

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	e "github.com/gartstein/companyconsole/internal/company/errors"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", notBlank)
	})
	return validate
}

func notBlank(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(s) != ""
}

// Validate checks a payload against its struct tags and returns a
// *errors.ValidationError describing every failing field.
func Validate(payload any) error {
	err := validatorInstance().Struct(payload)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := &e.ValidationError{}
	for _, fe := range ve {
		switch fe.Tag() {
		case "notblank", "required":
			out.Add(fe.Field(), fe.Field()+" is required")
		default:
			out.Add(fe.Field(), fe.Field()+" is invalid")
		}
	}
	return out
}

// ValidateID rejects empty record identifiers.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return e.NewValidationError("_id", "id is required")
	}
	return nil
}
