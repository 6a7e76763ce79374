// Package validate holds the shared struct validator and the validation
// error type returned for bad user input.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"

	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator
)

// ErrInvalid is wrapped by every ValidationError this package builds.
var ErrInvalid = errors.New("datos inválidos")

// custom validation tags & texts
const (
	conditionTag  = "condition"
	conditionText = "{0} debe ser Titular o Familiar"

	classTypeTag  = "classtype"
	classTypeText = "{0} debe ser individual o group"

	repeatingTag  = "repeating"
	repeatingText = "{0} debe ser none, weekly o monthly"
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	_es := es.New()
	uni := ut.New(_es, _es)
	Translator, _ = uni.GetTranslator("es")
	_ = es_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(conditionTag, func(fl validator.FieldLevel) bool {
		switch domain.Condition(fl.Field().String()) {
		case domain.ConditionTitular, domain.ConditionFamiliar:
			return true
		}
		return false
	})
	RegisterCustomTranslation(conditionTag, conditionText)

	_ = Validate.RegisterValidation(classTypeTag, func(fl validator.FieldLevel) bool {
		switch domain.ClassType(fl.Field().String()) {
		case domain.ClassIndividual, domain.ClassGroup:
			return true
		}
		return false
	})
	RegisterCustomTranslation(classTypeTag, classTypeText)

	_ = Validate.RegisterValidation(repeatingTag, func(fl validator.FieldLevel) bool {
		switch domain.Repeating(fl.Field().String()) {
		case domain.RepeatNone, domain.RepeatWeekly, domain.RepeatMonthly:
			return true
		}
		return false
	})
	RegisterCustomTranslation(repeatingTag, repeatingText)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates v and converts failures into a *ValidationError with
// translated per-field messages.
func Struct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}

	fields := make([]FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		fields = append(fields, FieldError{Field: fe.Field(), Error: fe.Translate(Translator)})
	}
	return NewValidationError(ErrInvalid, fields...)
}

// Field builds a ValidationError for a single field.
func Field(field, msg string) error {
	return NewValidationError(ErrInvalid, FieldError{Field: field, Error: msg})
}
