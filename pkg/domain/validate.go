package domain

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	requiredText = "this field is required"
	notBlankTag  = "notblank"

	categoryTag  = "essay_category"
	categoryText = "must be one of personal, supplemental, scholarship, other"

	statusTag  = "application_status"
	statusText = "must be one of not-started, in-progress, submitted, accepted, waitlisted, rejected"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
	translator    ut.Translator
)

func initValidator() {
	validate = validator.New()
	locale := en.New()
	translator, _ = ut.New(locale, locale).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Whitespace-only text counts as missing.
	_ = validate.RegisterValidation(notBlankTag, validators.NotBlank)
	_ = validate.RegisterValidation(categoryTag, func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return ApplicationStatus(fl.Field().String()).Valid()
	})

	registerTranslation("required", requiredText, true)
	registerTranslation("required_unless", requiredText, true)
	registerTranslation(notBlankTag, requiredText, true)
	registerTranslation(categoryTag, categoryText, false)
	registerTranslation(statusTag, statusText, false)
}

func registerTranslation(tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ValidateEssay checks required fields. Drafts only need title and content.
func ValidateEssay(e Essay) error {
	return validateEntity(EntityEssay, e)
}

// ValidateInstitution checks that name and status are present and valid.
func ValidateInstitution(i Institution) error {
	return validateEntity(EntityInstitution, i)
}

func validateEntity(entity EntityType, v any) error {
	validatorOnce.Do(initValidator)
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Entity: entity}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Error: fe.Translate(translator)})
	}
	return out
}
