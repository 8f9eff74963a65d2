// Package validation checks request input with go-playground/validator and
// turns failures into field-level messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"ortografia/internal/models"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	wordTag     = "spelling_word"
	notBlankTag = "notblank"
	gameTypeTag = "game_type"
	roleTag     = "role"

	wordRegex = regexp.MustCompile(`^[A-ZÁÉÍÓÚÜÑ]+$`)
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(wordTag, wordValidation)
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(gameTypeTag, gameTypeValidation)
	_ = validate.RegisterValidation(roleTag, roleValidation)

	registerTranslation(wordTag, "{0} must contain only letters")
	registerTranslation(notBlankTag, "{0} cannot be blank")
	registerTranslation(gameTypeTag, "{0} must be one of "+strings.Join(models.GameTypes, ", "))
	registerTranslation(roleTag, "{0} must be teacher, parent or child")
	registerTranslation("required", "{0} is required", true)
}

func registerTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors collects every failed field of one input
type Errors []ValidationError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Message
	}
	return strings.Join(msgs, "; ")
}

// Struct validates s by its `validate` tags. It returns Errors or nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: fe.Translate(translator)})
	}
	return out
}

// NormalizeWord trims and uppercases a word the way it is stored
func NormalizeWord(word string) string {
	return strings.ToUpper(strings.TrimSpace(word))
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if err := validate.Var(email, "email"); err != nil {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

func wordValidation(fl validator.FieldLevel) bool {
	return wordRegex.MatchString(NormalizeWord(fl.Field().String()))
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func gameTypeValidation(fl validator.FieldLevel) bool {
	return models.IsGameType(fl.Field().String())
}

func roleValidation(fl validator.FieldLevel) bool {
	_, err := models.ParseRole(fl.Field().String())
	return err == nil
}
