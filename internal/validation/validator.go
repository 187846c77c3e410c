// Package validation validates application definitions and resource inputs.
//
// It combines go-playground/validator struct validation of the app definition
// document with the domain rules the builder enforces: resource naming and
// external-service URL shape.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a single field-level validation failure.
type ValidationError struct {
	// Field is the field that failed validation.
	Field string `json:"field"`

	// Message describes why validation failed.
	Message string `json:"message"`

	// Value is the offending value, when useful.
	Value interface{} `json:"value,omitempty"`
}

// ValidationResult is the outcome of validating one document.
type ValidationResult struct {
	// Valid is true when no errors were found.
	Valid bool `json:"valid"`

	// Errors lists every validation error found.
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validator validates app definition documents and resource fields.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a ready-to-use validator. Resource names validate with the
// custom "resourcename" tag.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("resourcename", func(fl validator.FieldLevel) bool {
		return ResourceName(fl.Field().String()) == nil
	})
	return &Validator{structValidator: v}
}

// Struct validates any struct against its validate tags, translating
// failures into field-level errors.
func (v *Validator) Struct(doc interface{}) *ValidationResult {
	err := v.structValidator.Struct(doc)
	if err == nil {
		return &ValidationResult{Valid: true}
	}

	result := &ValidationResult{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			result.Errors = append(result.Errors, ValidationError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q validation", fe.Tag()),
				Value:   fe.Value(),
			})
		}
	} else {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "document",
			Message: err.Error(),
		})
	}
	return result
}

var resourceNamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ResourceName checks that a resource name is a DNS-compatible label:
// lower-case alphanumerics and dashes, not starting or ending with a dash.
func ResourceName(name string) error {
	if name == "" {
		return fmt.Errorf("resource name must not be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("resource name %q exceeds 63 characters", name)
	}
	if !resourceNamePattern.MatchString(name) {
		return fmt.Errorf("resource name %q is invalid: use lower-case alphanumerics and dashes", name)
	}
	return nil
}

// ExternalServiceURL checks that an external-service URL is usable for
// service discovery: absolute, with no path other than "/", and no query or
// fragment.
func ExternalServiceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url %q is invalid: %w", raw, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("url %q is invalid: an absolute URL with a scheme and host is required", raw)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf(`url %q is invalid: absolute path must be "/"`, raw)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("url %q is invalid: query strings are not supported", raw)
	}
	if u.Fragment != "" || strings.Contains(raw, "#") {
		return fmt.Errorf("url %q is invalid: fragments are not supported", raw)
	}
	return nil
}
