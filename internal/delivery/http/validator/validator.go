// Package validator adapts go-playground/validator to echo.
package validator

import (
	"reflect"
	"strings"
	"unicode"

	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/errors"

	"github.com/go-playground/validator/v10"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 32
)

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

// New builds the request validator with the custom "password" rule registered.
func New() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json field names so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	if err := v.RegisterValidation("password", validatePassword); err != nil {
		panic(err)
	}

	return &CustomValidator{validate: v}
}

// Validate checks i and reports the first failing fields as ErrValidationFailed.
func (cv *CustomValidator) Validate(i any) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := errors.AsType[validator.ValidationErrors](err)
	if !ok {
		return errors.WithStack(err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describe(fe))
	}

	return domainerrors.ErrValidationFailed.WithDetails(strings.Join(messages, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "password":
		return field + " must be 8-32 characters and contain uppercase, lowercase, and number/special character"
	case "oneof":
		return field + " must be one of " + fe.Param()
	default:
		return field + " is invalid"
	}
}

// validatePassword requires 8-32 characters with an upper and a lower case letter
// plus a digit or a non-alphanumeric character.
func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if n := len([]rune(password)); n < passwordMinLength || n > passwordMaxLength {
		return false
	}

	var hasUpper, hasLower, hasDigitOrSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r), !unicode.IsLetter(r):
			hasDigitOrSymbol = true
		}
	}

	return hasUpper && hasLower && hasDigitOrSymbol
}
