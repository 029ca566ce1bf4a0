package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("symbol", func(fl validator.FieldLevel) bool {
		return IsValidSymbol(fl.Field().String())
	})
	return v
}

// ValidateStruct fills `default` tags, then checks `validate` tags.
func ValidateStruct(v interface{}) error {
	if err := defaults.Set(v); err != nil {
		return err
	}
	return validate.Struct(v)
}

// Bind decodes the request body into req and validates it. Every failure is a
// KindValidation AppError.
func Bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		msg := "Malformed request body"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg = fmt.Sprint(he.Message)
		}
		return NewValidationError("", msg).WithError(err)
	}
	if err := defaults.Set(req); err != nil {
		return NewValidationError("", err.Error())
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return ValidationAppError(err)
	}
	return nil
}

// ValidationAppError reports the first failed field of a validation error.
func ValidationAppError(err error) *AppError {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return NewValidationError("", err.Error())
	}
	fe := fields[0]
	e := NewValidationError(fe.Field(), fieldMessage(fe)).WithParam("rule", fe.Tag())
	if fe.Param() != "" {
		e.WithParam("param", fe.Param())
	}
	return e
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "symbol":
		return name + " must be 1-5 letters"
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", name, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", name, fe.Param(), unit)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, strings.Join(strings.Fields(fe.Param()), ", "))
	}
	return fmt.Sprintf("%s is invalid (%s)", name, fe.Tag())
}
