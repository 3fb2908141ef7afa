package kafka

import (
	"errors"
	"fmt"
)

// PermanentError marks a handler failure that retrying cannot fix, such
// as a malformed payload. The consumer skips backoff for it.
type PermanentError struct {
	Code string
	Err  error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError with the given code.
func Permanent(code string, err error) error {
	return &PermanentError{Code: code, Err: err}
}

// IsPermanent reports whether err is or wraps a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
