// Package validation wraps go-playground/validator for the protocol
// adapters. Each adapter binds and reports in its own wire envelope, so
// this package only owns the shared validator instance and the error
// flattening.
package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator shared by both protocol adapters.
func New() *validatorv10.Validate {
	return validatorv10.New()
}

// ErrorsToMap flattens validator errors into field -> message.
func ErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error() // simple message; can be improved
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
