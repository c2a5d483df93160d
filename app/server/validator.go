package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/labstack/echo/v4"
)

// requestValidator is the echo.Validator for bound request structs. Field
// names in messages are the query parameter names.
type requestValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func newRequestValidator(maxPageSize int) (*requestValidator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "param"} {
			if name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]; name != "" {
				return name
			}
		}
		return fld.Name
	})

	if err := validate.RegisterValidation("max_page_size", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(maxPageSize)
	}); err != nil {
		return nil, fmt.Errorf("failed to register max_page_size validation: %w", err)
	}
	if err := validate.RegisterTranslation("max_page_size", trans, func(ut ut.Translator) error {
		return ut.Add("max_page_size", "{0} must be {1} or less", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("max_page_size", fe.Field(), fmt.Sprint(maxPageSize))
		return t
	}); err != nil {
		return nil, fmt.Errorf("failed to register max_page_size translation: %w", err)
	}

	return &requestValidator{validate: validate, trans: trans}, nil
}

func (v *requestValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, e.Translate(v.trans))
	}
	return echo.NewHTTPError(http.StatusBadRequest, strings.Join(msgs, ", "))
}
