package identity

import (
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

var (
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	specialPattern = regexp.MustCompile(`[^\w\s]`)
)

// passwordRules enforces the five strength requirements. Rules run in
// order and report the first failure only.
func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Match(lowerPattern).Error("contains at least one lower character"),
		validation.Match(upperPattern).Error("contains at least one upper character"),
		validation.Match(digitPattern).Error("contains at least one digit character"),
		validation.Match(specialPattern).Error("contains at least one special character"),
		validation.Length(8, 0).Error("contains at least 8 characters"),
	}
}

// FieldErrors flattens a validation result into field name -> message.
// Nested results collapse into dotted paths.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	flattenFieldErrors("", err, out)
	return out
}

func flattenFieldErrors(prefix string, err error, out map[string]string) {
	errs, ok := err.(validation.Errors)
	if !ok {
		if prefix != "" && err != nil {
			out[prefix] = err.Error()
		}
		return
	}

	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		flattenFieldErrors(path, errs[key], out)
	}
}

// validationError converts an ozzo result into a categorized error
// carrying the per-field messages in metadata.
func validationError(err error) error {
	fields := FieldErrors(err)

	msgs := make([]string, 0, len(fields))
	for _, msg := range fields {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)

	return errors.New(strings.Join(msgs, "; "), errors.CategoryValidation).
		WithTextCode("VALIDATION_FAILED").
		WithMetadata(map[string]any{"fields": fields})
}

// fieldError builds a validation error for a single named field.
func fieldError(field, msg string) error {
	return errors.New(msg, errors.CategoryValidation).
		WithTextCode("VALIDATION_FAILED").
		WithMetadata(map[string]any{
			"fields": map[string]string{field: msg},
		})
}
