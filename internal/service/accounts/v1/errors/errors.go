// Package errors provides custom error types.
package errors

import "fmt"

type (
	ServiceFoundNilArgument struct {
		Msg string
	}
	ValidationError struct {
		Field string
		Msg   string
	}
	WrongCredentialsError struct {
		Username string
	}
)

func (e *ServiceFoundNilArgument) Error() string {
	return e.Msg
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s did not pass validation: %s", e.Field, e.Msg)
}

func (e *WrongCredentialsError) Error() string {
	return fmt.Sprintf("wrong credentials for user %s", e.Username)
}
