package graph

import "github.com/go-playground/validator/v10"

var inputValidator = validator.New(validator.WithRequiredStructEnabled())

// validateInput checks an operation input against its validate tags. Structural
// validation only; business rules stay with the remote API.
func validateInput(in any) error {
	if err := inputValidator.Struct(in); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}
