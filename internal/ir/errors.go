package ir

import (
	"errors"
	"fmt"
)

// Code categorizes a rejected invocation.
type Code string

const (
	CodeZeroAmount                Code = "ZERO_AMOUNT"
	CodeInsufficientUnlockedShare Code = "INSUFFICIENT_UNLOCKED_SHARE"
	CodeUnauthorized              Code = "UNAUTHORIZED"
	CodeProposalNotInProgress     Code = "PROPOSAL_NOT_IN_PROGRESS"
	CodeProposalNotPassed         Code = "PROPOSAL_NOT_PASSED"
	CodeTimelockNotElapsed        Code = "TIMELOCK_NOT_ELAPSED"
	CodeProposalExpired           Code = "PROPOSAL_EXPIRED"
	CodeSnapshotTooEarly          Code = "SNAPSHOT_TOO_EARLY"
	CodeSnapshotAlreadyTaken      Code = "SNAPSHOT_ALREADY_TAKEN"
	CodeAlreadyVoted              Code = "ALREADY_VOTED"
	CodeInvalidConfigBound        Code = "INVALID_CONFIG_BOUND"
	CodeArithmeticOverflow        Code = "ARITHMETIC_OVERFLOW"

	CodeNotFound            Code = "NOT_FOUND"
	CodeInsufficientDeposit Code = "INSUFFICIENT_DEPOSIT"
	CodeInsufficientFunds   Code = "INSUFFICIENT_FUNDS"
	CodeVotingClosed        Code = "VOTING_CLOSED"
	CodeVotingNotEnded      Code = "VOTING_NOT_ENDED"
	CodeProposalNotExpired  Code = "PROPOSAL_NOT_EXPIRED"
	CodeExecutionFailed     Code = "EXECUTION_FAILED"
	CodeTimeRegression      Code = "TIME_REGRESSION"
	CodeInsufficientAccrued Code = "INSUFFICIENT_ACCRUED"
	CodeInvalidSchedule     Code = "INVALID_SCHEDULE"
	CodeTooManySchedules    Code = "TOO_MANY_SCHEDULES"
	CodeSettlementPending   Code = "SETTLEMENT_PENDING"
	CodeInvalidAction       Code = "INVALID_ACTION"
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
)

// Error is a rejected invocation. Every Error aborts the whole invocation
// with no state change; the caller must resubmit.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Errorf creates an Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around an underlying cause.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithDetail returns e with a detail added.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Sentinels for errors.Is.
var (
	ErrZeroAmount                = &Error{Code: CodeZeroAmount}
	ErrInsufficientUnlockedShare = &Error{Code: CodeInsufficientUnlockedShare}
	ErrUnauthorized              = &Error{Code: CodeUnauthorized}
	ErrProposalNotInProgress     = &Error{Code: CodeProposalNotInProgress}
	ErrProposalNotPassed         = &Error{Code: CodeProposalNotPassed}
	ErrTimelockNotElapsed        = &Error{Code: CodeTimelockNotElapsed}
	ErrProposalExpired           = &Error{Code: CodeProposalExpired}
	ErrSnapshotTooEarly          = &Error{Code: CodeSnapshotTooEarly}
	ErrSnapshotAlreadyTaken      = &Error{Code: CodeSnapshotAlreadyTaken}
	ErrAlreadyVoted              = &Error{Code: CodeAlreadyVoted}
	ErrInvalidConfigBound        = &Error{Code: CodeInvalidConfigBound}
	ErrArithmeticOverflow        = &Error{Code: CodeArithmeticOverflow}
	ErrNotFound                  = &Error{Code: CodeNotFound}
	ErrInsufficientFunds         = &Error{Code: CodeInsufficientFunds}
	ErrExecutionFailed           = &Error{Code: CodeExecutionFailed}
	ErrTimeRegression            = &Error{Code: CodeTimeRegression}
	ErrSettlementPending         = &Error{Code: CodeSettlementPending}
)

// InvariantViolation is the panic value for a ledger invariant breach.
// It indicates a logic defect; it is never returned as an error.
type InvariantViolation struct {
	Invariant string
	Detail    string
}

func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("ledger invariant violated: %s (%s)", v.Invariant, v.Detail)
}

// Breach panics with an InvariantViolation.
func Breach(invariant, format string, args ...any) {
	panic(&InvariantViolation{Invariant: invariant, Detail: fmt.Sprintf(format, args...)})
}
