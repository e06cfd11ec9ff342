// Package errors provides custom error types.
package errors

import "fmt"

type (
	ServiceFoundNilArgument struct {
		Msg string
	}
	IllegalAccountNumberError struct {
		AccountNumber string
	}
	IllegalAmountError struct {
		Amount float64
	}
	IllegalStatusError struct {
		Status string
	}
)

func (e *ServiceFoundNilArgument) Error() string {
	return e.Msg
}

func (e *IllegalAccountNumberError) Error() string {
	return fmt.Sprintf("account number %s did not pass validation", e.AccountNumber)
}

func (e *IllegalAmountError) Error() string {
	return fmt.Sprintf("withdrawal amount %.2f must be positive", e.Amount)
}

func (e *IllegalStatusError) Error() string {
	return fmt.Sprintf("status %s is not a valid review verdict", e.Status)
}
