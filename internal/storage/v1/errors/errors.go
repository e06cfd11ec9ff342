// Package errors provides custom error types.
package errors

import (
	"fmt"
)

type (
	ExecutionPSQLError struct {
		Err error
	}
	ScanningPSQLError struct {
		Err error
	}
	ContextTimeoutExceededError struct {
		Err error
	}
	AlreadyExistsError struct {
		Err error
		ID  string
	}
	NotFoundError struct {
		Err error
		ID  string
	}
	CodeExpiredError struct {
		Code string
	}
	CodeAlreadyUsedError struct {
		Code string
	}
	// AlreadyRewardedError reports an idempotency-key hit for a (user, source) pair.
	AlreadyRewardedError struct {
		Username string
		SourceID string
	}
	NotEnoughFundsError struct {
		Username string
		Amount   float64
	}
	// TerminalStatusError reports a status transition attempted on a reviewed withdrawal.
	TerminalStatusError struct {
		ID     string
		Status string
	}
)

func (e *ExecutionPSQLError) Error() string {
	return fmt.Sprintf("%s: could not execute", e.Err.Error())
}

func (e *ScanningPSQLError) Error() string {
	return fmt.Sprintf("%s: could not scan", e.Err.Error())
}

func (e *ContextTimeoutExceededError) Error() string {
	return fmt.Sprintf("%s: context timeout exceeded", e.Err.Error())
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s: already exists", e.ID)
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not found", e.ID)
}

func (e *CodeExpiredError) Error() string {
	return fmt.Sprintf("%s: access code expired", e.Code)
}

func (e *CodeAlreadyUsedError) Error() string {
	return fmt.Sprintf("%s: access code already used", e.Code)
}

func (e *AlreadyRewardedError) Error() string {
	return fmt.Sprintf("%s: already rewarded for %s", e.Username, e.SourceID)
}

func (e *NotEnoughFundsError) Error() string {
	return fmt.Sprintf("%s: not enough funds for withdrawal of %v", e.Username, e.Amount)
}

func (e *TerminalStatusError) Error() string {
	return fmt.Sprintf("%s: withdrawal already %s", e.ID, e.Status)
}
