package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/profile-service/internal/models"
)

// MaxNameLength bounds display names
const MaxNameLength = 100

// Validator wraps go-playground/validator with the profile rules registered
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single field failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// First returns the message of the first failure, suitable for a user-facing message
func (ve ValidationErrors) First() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	return ve[0].Message
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names instead of Go field names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerRules()
	return v
}

func (v *Validator) registerRules() {
	v.validate.RegisterValidation("profile_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		return name != "" && utf8.RuneCountInString(name) <= MaxNameLength
	})

	v.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		_, err := models.ParseUserRole(fl.Field().String())
		return err == nil
	})
}

// Validate runs struct validation and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

func ToValidationErrors(err error) ValidationErrors {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "", Message: err.Error(), Rule: "invalid"}}
	}

	result := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		result = append(result, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return result
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldLabel(fe.Field()))
	case "profile_name":
		return fmt.Sprintf("name must be between 1 and %d characters", MaxNameLength)
	case "user_role":
		return "Invalid role value"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func fieldLabel(field string) string {
	if field == "" {
		return "value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
