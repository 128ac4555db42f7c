package models

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// asinPattern matches the fixed external id format: 10 upper-case
// alphanumeric characters.
var asinPattern = regexp.MustCompile(`^[0-9A-Z]{10}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("asin", func(fl validator.FieldLevel) bool {
		return asinPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("region", func(fl validator.FieldLevel) bool {
		return RegionSupported(fl.Field().String())
	})
	return v
}

// ValidASIN reports whether s satisfies the external id format.
func ValidASIN(s string) bool {
	return asinPattern.MatchString(s)
}

// Validate checks a canonical entity against its schema tags. On failure
// it returns a ValidationError naming the first offending field; no
// partially-shaped record may be persisted.
func Validate(asin string, entity any) error {
	if err := validate.Struct(entity); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return &ValidationError{ASIN: asin, Field: errs[0].Field()}
		}
		return &ValidationError{ASIN: asin, Field: "unknown"}
	}
	return nil
}
