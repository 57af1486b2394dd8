package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"gamecatalog/models"

	"github.com/go-playground/validator/v10"
)

type RegisterForm struct {
	Username        string `form:"username" validate:"required,nonblank,min=3,max=50"`
	Password        string `form:"password" validate:"required,nonblank,min=5"`
	ConfirmPassword string `form:"confirm_password" validate:"required,nonblank,eqfield=Password"`
}

type LoginForm struct {
	Username string `form:"username" validate:"required,nonblank"`
	Password string `form:"password" validate:"required,nonblank"`
}

type GameForm struct {
	Title       string `form:"title" validate:"required,nonblank,max=100"`
	Genre       string `form:"genre" validate:"required,nonblank,max=50"`
	Description string `form:"description" validate:"required,nonblank"`
}

var fieldLabels = map[string]string{
	"username":         "Username",
	"password":         "Password",
	"confirm_password": "Confirm Password",
	"title":            "Title",
	"genre":            "Genre",
	"description":      "Description",
}

var validate = newValidator()

var isNonBlank validator.Func = func(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	if err := v.RegisterValidation("nonblank", isNonBlank); err != nil {
		panic(err)
	}
	return v
}

// ValidateForm checks one of the form structs above and returns a
// *models.ValidationError listing every failing field.
func ValidateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate form: %w", err)
	}

	verr := &models.ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = fieldMessage(fe)
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required", "nonblank":
		return label + " is required."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long.", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long.", label, fe.Param())
	case "eqfield":
		return "Passwords must match."
	}
	return label + " is invalid."
}
