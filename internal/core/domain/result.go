package domain

import "errors"

// Result is the envelope every account operation returns. Success is the
// discriminant: when true Data is set, when false only Message is meaningful.
type Result[T any] struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    *T        `json:"data,omitempty"`
	Kind    ErrorKind `json:"-"`
}

// Ok wraps a successful payload.
func Ok[T any](data T, msg string) Result[T] {
	return Result[T]{Success: true, Message: msg, Data: &data}
}

// Fail builds a failure envelope from err. Domain errors keep their kind and
// message; anything else is reported as internal with fallback as the message.
func Fail[T any](err error, fallback string) Result[T] {
	var de *Error
	if errors.As(err, &de) {
		return Result[T]{Message: de.Message, Kind: de.Kind}
	}
	return Result[T]{Message: fallback, Kind: KindInternal}
}
