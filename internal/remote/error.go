package remote

import "errors"

// ErrNotFound is wrapped by store errors for missing resources.
var ErrNotFound = errors.New("there is no resource for the ID you specified")

// Error is the typed error every Store implementation returns. Message is
// human-readable and safe to surface; Err keeps the underlying cause for
// logs.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "remote store error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a store error for an operation.
func NewError(op, message string, err error) *Error {
	return &Error{Op: op, Message: message, Err: err}
}
