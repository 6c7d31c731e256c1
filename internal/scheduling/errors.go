package scheduling

import (
	"errors"
	"fmt"
)

// ValidationError marks a request the caller can fix: a bad reference, a
// taken seat, an inactive subscription.  Handlers translate it to HTTP 400
// or 409; anything else is a 500.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// invalid builds a ValidationError with a formatted message.
func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
