// Package form binds submitted HTML forms and reports field-level errors
// in a shape templates can render next to each input.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NonFieldErrors 不属于具体字段的错误
const NonFieldErrors = "__all__"

// Errors field name → messages
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Get(field string) []string { return e[field] }
func (e Errors) Has(field string) bool     { return len(e[field]) > 0 }
func (e Errors) NonField() []string        { return e[NonFieldErrors] }
func (e Errors) Empty() bool               { return len(e) == 0 }

var usernameRe = regexp.MustCompile(`^[\p{L}\p{N}@.+\-_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 错误里用表单字段名而不是 Go 字段名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	return v
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "eqfield":
		return "The two password fields didn't match."
	case "number":
		return "Select a valid choice."
	default:
		return "Enter a valid value."
	}
}

// check runs struct validation and converts failures into Errors.
func check(s any) Errors {
	errs := Errors{}
	err := validate.Struct(s)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add(NonFieldErrors, err.Error())
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}
