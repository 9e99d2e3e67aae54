package service

import (
	"errors"
	"fmt"
)

// Kind classifies an API error so the transport can map it to a status code
// without inspecting messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthentication
	KindPermission
	KindNotFound
	KindRateLimited
)

type APIError struct {
	kind Kind
	msg  string
}

func (e *APIError) Error() string { return e.msg }

func (e *APIError) Kind() Kind { return e.kind }

func ValidationError(format string, args ...interface{}) error {
	return &APIError{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

func AuthenticationError(format string, args ...interface{}) error {
	return &APIError{kind: KindAuthentication, msg: fmt.Sprintf(format, args...)}
}

func PermissionError(format string, args ...interface{}) error {
	return &APIError{kind: KindPermission, msg: fmt.Sprintf(format, args...)}
}

func NotFoundError(format string, args ...interface{}) error {
	return &APIError{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

func RateLimitError(format string, args ...interface{}) error {
	return &APIError{kind: KindRateLimited, msg: fmt.Sprintf(format, args...)}
}

// KindOf unwraps err down to an APIError; KindUnknown means an internal
// failure that must not leak detail to the client.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.kind
	}
	return KindUnknown
}
