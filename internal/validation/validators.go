// Package validation checks form input before anything is sent to the remote API.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/target/userdeck/internal/domain/model"
	apperrors "github.com/target/userdeck/internal/errors"
)

// Validator is a function that validates a string value and returns an error message if invalid.
type Validator func(v string) string

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Required validates that a field is not empty and does not exceed maxLen characters.
// Uses rune count for proper Unicode support.
func Required(fieldName string, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return fieldName + " is required"
		}
		if maxLen > 0 && utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s cannot exceed %d characters", fieldName, maxLen)
		}
		return ""
	}
}

// MinLength validates that a non-empty field has at least minLen characters.
// Surrounding whitespace counts, as it does for passwords.
func MinLength(fieldName string, minLen int) Validator {
	return func(v string) string {
		if v == "" {
			return ""
		}
		if utf8.RuneCountInString(v) < minLen {
			return fmt.Sprintf("%s must be at least %d characters", fieldName, minLen)
		}
		return ""
	}
}

// Email validates the loose something@something.tld shape. Empty values pass;
// pair it with Required.
func Email() Validator {
	return Pattern(emailPattern, "Email is invalid")
}

// MinInt validates that a field is an integer of at least minVal. msg is
// returned when the number is too small.
func MinInt(fieldName string, minVal int, msg string) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			return fieldName + " must be a number"
		}
		if i < minVal {
			return msg
		}
		return ""
	}
}

// OneOf validates that a non-empty field matches one of options (case-insensitive).
func OneOf(fieldName string, options []string) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		for _, opt := range options {
			if strings.EqualFold(v, opt) {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of: %s", fieldName, strings.Join(options, ", "))
	}
}

// Pattern validates that a non-empty field matches re, returning msg otherwise.
func Pattern(re *regexp.Regexp, msg string) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		if !re.MatchString(v) {
			return msg
		}
		return ""
	}
}

// Image validates an optional avatar upload: image/* only and at most maxBytes.
func Image(up *model.Upload, maxBytes int64) string {
	if up == nil {
		return ""
	}
	if !up.IsImage() {
		return "Only image files are allowed"
	}
	if maxBytes > 0 && up.Size > maxBytes {
		return TooLarge(maxBytes)
	}
	return ""
}

// TooLarge is the message for a file over maxBytes.
func TooLarge(maxBytes int64) string {
	return fmt.Sprintf("File size must be less than %s", humanBytes(maxBytes))
}

func humanBytes(n int64) string {
	const mb = 1 << 20
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}

// Errors maps form field names to their first error message.
type Errors map[string]string

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldValidator provides a fluent API for validating multiple fields.
type FieldValidator struct {
	errors Errors
	order  []string
}

// New creates a new FieldValidator instance.
func New() *FieldValidator {
	return &FieldValidator{errors: make(Errors)}
}

// Validate validates a field with one or more validators.
// It stops at the first error for each field.
func (fv *FieldValidator) Validate(field, value string, validators ...Validator) *FieldValidator {
	for _, v := range validators {
		if msg := v(value); msg != "" {
			fv.Add(field, msg)
			break // Stop at first error per field
		}
	}
	return fv
}

// Add records msg for field unless the field already has an error or msg is empty.
func (fv *FieldValidator) Add(field, msg string) *FieldValidator {
	if msg == "" {
		return fv
	}
	if _, exists := fv.errors[field]; exists {
		return fv
	}
	fv.errors[field] = msg
	fv.order = append(fv.order, field)
	return fv
}

// Errors returns the accumulated validation errors.
func (fv *FieldValidator) Errors() Errors {
	return fv.errors
}

// Valid reports whether no field failed.
func (fv *FieldValidator) Valid() bool {
	return len(fv.errors) == 0
}

// Err returns nil when valid, otherwise a validation AppError naming the first
// failing field and wrapping the full Errors map.
func (fv *FieldValidator) Err() error {
	if fv.Valid() {
		return nil
	}
	first := fv.order[0]
	return &apperrors.AppError{
		Code:    apperrors.ErrCodeValidation,
		Message: fv.errors[first],
		Field:   first,
		Cause:   fv.errors,
	}
}
