package creative

import (
	"errors"
	"fmt"
)

// Error pairs a taxonomy sentinel from the domain package with the single
// human-readable message the UI renders. The underlying cause is kept for
// logs only and never shown to the user.
type Error struct {
	Kind    error
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// UserMessage extracts the message intended for the UI layer. Errors outside
// the pipeline taxonomy collapse into a generic failure message.
func UserMessage(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return "Something went wrong. Please try again."
}
