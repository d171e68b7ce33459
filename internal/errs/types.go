package errs

import "strings"

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

// ValidationError keeps the individual messages alongside the joined text.
type ValidationError struct {
	ErrorMessage
	Messages []string
}

// DatabaseError hides a persistence failure behind a generic message.
// Operation names what was attempted and Cause is never shown to clients.
type DatabaseError struct {
	ErrorMessage
	Operation string
	Cause     error
}

func (e *DatabaseError) Unwrap() error { return e.Cause }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: strings.Join(messages, ", ")},
		Messages:     messages,
	}
}

func NewDatabaseError(operation, message string, cause error) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Cause:        cause,
	}
}
