package model

import "errors"

// ErrMissingField is matched by every *MissingFieldError
var ErrMissingField = errors.New("missing required field")

// MissingFieldError reports a mandatory JSON key that was not supplied
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "target json is missing required attribute: " + e.Field
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}
