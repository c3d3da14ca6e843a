package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/mkrupp/simpletodo/internal/domain"
)

// ErrMalformedBody is returned when a request body is not valid JSON.
//
//nolint:gochecknoglobals
var ErrMalformedBody = domain.NewValidationError("Request.Body", "The request body is not valid JSON.")

//nolint:gochecknoglobals
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}

			if name == "" {
				return field.Name
			}

			return name
		})
	})

	return validate
}

// DecodeAndValidate decodes the JSON body of r into dst and validates it.
// Every failing field is reported as its own validation error.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return errors.Join(ErrMalformedBody, fmt.Errorf("decode json: %w", err))
	}

	return Validate(dst)
}

// Validate checks v against its `validate` struct tags.
func Validate(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fieldError(fe))
	}

	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) *domain.Error {
	name := fe.Field()
	code := "Request." + strings.ToUpper(name[:1]) + name[1:]

	var description string

	switch fe.Tag() {
	case "required":
		description = fmt.Sprintf("'%s' is required.", name)
	case "max":
		description = fmt.Sprintf("'%s' must be at most %s characters long.", name, fe.Param())
	case "min":
		description = fmt.Sprintf("'%s' must be at least %s characters long.", name, fe.Param())
	default:
		description = fmt.Sprintf("'%s' failed the '%s' rule.", name, fe.Tag())
	}

	return domain.NewValidationError(code, description)
}
