package util

import "fmt"

// ResponseError is a user-visible error with a stable machine-readable
// type code. Anything else surfaces as a generic 500.
type ResponseError struct {
	Type   string
	Msg    string
	Status int
}

func (e ResponseError) Error() string { return e.Msg }

func NewResponseError(status int, errType, format string, args ...interface{}) error {
	return ResponseError{
		Type:   errType,
		Msg:    fmt.Sprintf(format, args...),
		Status: status,
	}
}
