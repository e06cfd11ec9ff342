// Package errors provides custom error types.
package errors

import "fmt"

type (
	ServiceFoundNilArgument struct {
		Msg string
	}
	IllegalRewardError struct {
		Reward float64
	}
	EmptyTitleError struct{}
)

func (e *ServiceFoundNilArgument) Error() string {
	return e.Msg
}

func (e *IllegalRewardError) Error() string {
	return fmt.Sprintf("reward %.2f must be positive", e.Reward)
}

func (e *EmptyTitleError) Error() string {
	return "title must not be empty"
}
