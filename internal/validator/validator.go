// Package validator provides a Validator type for accumulating field-level
// validation errors and returning them as a map.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// NonFieldErrors is the key for errors that belong to the form as a whole.
const NonFieldErrors = "__all__"

// structValidator reads `validate` tags and reports field names from `form` tags.
var structValidator = func() *playground.Validate {
	v := playground.New(playground.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}()

// Validator holds a map of field names to their validation error messages.
// A Validator with an empty Errors map is considered valid.
type Validator struct {
	Errors map[string]string
}

// New creates and returns a fresh, empty Validator.
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if the Errors map contains no entries.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records key as failing with the given message.
// The first failure for a field is always the one that is reported.
func (v *Validator) AddError(key, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string]string)
	}
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// AddNonFieldError records an error that is not tied to one input.
func (v *Validator) AddNonFieldError(message string) {
	v.AddError(NonFieldErrors, message)
}

// Check adds an error for key with message only when ok is false.
//
//	v.Check(len(title) > 0, "title", "This field is required.")
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// CheckStruct runs the `validate` tags of s and records one message per
// failing field, keyed by the field's `form` tag.
func (v *Validator) CheckStruct(s any) {
	err := structValidator.Struct(s)
	if err == nil {
		return
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.AddNonFieldError(err.Error())
		return
	}
	for _, fe := range fieldErrs {
		v.AddError(fieldKey(fe), message(fe))
	}
}

// fieldKey strips slice indexes so "genre[0]" reports against "genre".
func fieldKey(fe playground.FieldError) string {
	name, _, _ := strings.Cut(fe.Field(), "[")
	return name
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is at most %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return "Select at least one choice."
		}
		return fmt.Sprintf("Ensure this value is at least %s.", fe.Param())
	case "len":
		return fmt.Sprintf("Ensure this value has exactly %s characters.", fe.Param())
	case "datetime":
		return "Enter a valid date."
	case "oneof", "gt":
		return "Select a valid choice."
	}
	return "Enter a valid value."
}

// In returns true if value is present in the list.
func In[T comparable](value T, list ...T) bool {
	return slices.Contains(list, value)
}

// NotBlank returns true if value contains at least one non-space character.
func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

// SafeRedirect returns true if target is a local absolute path that cannot
// be interpreted as a different host.
func SafeRedirect(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\")
}
