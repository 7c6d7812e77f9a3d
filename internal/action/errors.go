// internal/action/errors.go
package action

import (
	"errors"
	"fmt"
)

// ErrPollTimeout is returned by Poll when the condition never held before the deadline.
var ErrPollTimeout = errors.New("condition not met before deadline")

// Error is the failure of a retried action once every attempt is spent.
// Cause is the error of the final attempt.
type Error struct {
	Description string
	Attempts    int
	Cause       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s after %d attempt(s): %v", e.Description, e.Attempts, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// MismatchError reports an observed value that differs from the expected one:
// a fill that does not read back, a validation message that does not match.
type MismatchError struct {
	Subject  string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s mismatch. expected: %q, got: %q", e.Subject, e.Expected, e.Actual)
}

// IsMismatch reports whether err carries a MismatchError.
func IsMismatch(err error) bool {
	var m *MismatchError
	return errors.As(err, &m)
}
