package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match the request body.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("pos_role", func(fl validator.FieldLevel) bool {
		_, err := entity.ParseRole(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("oauth_provider", func(fl validator.FieldLevel) bool {
		provider, err := entity.ParseAuthProvider(fl.Field().String())
		return err == nil && provider != entity.ProviderLocal
	})

	return v
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return errors.New(fieldMessage(fieldErrs[0]))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "pos_role":
		return fmt.Sprintf("%s must be one of admin, biller, supplier, store_owner, customer", fe.Field())
	case "oauth_provider":
		return fmt.Sprintf("%s must be google or facebook", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
