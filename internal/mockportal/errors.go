package mockportal

import "errors"

// ErrNotFound reports an unknown entity id.
var ErrNotFound = errors.New("mockportal: not found")

// ValidationError carries the user-facing rejection message for a bad
// input. Handlers serialize Message untouched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is an input rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
