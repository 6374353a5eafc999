package rounds

import (
	"errors"
	"fmt"
)

// Code is the stable, machine-readable reason a round operation was refused.
type Code string

const (
	CodeOverlap             Code = "FUNDING_ROUND_OVERLAP"
	CodeStageExhausted      Code = "STAGE_EXHAUSTED"
	CodeExitedStartup       Code = "EXITED_STARTUP"
	CodeInvalidDateRange    Code = "INVALID_DATE_RANGE"
	CodeForbidden           Code = "FORBIDDEN"
	CodePendingProposal     Code = "PENDING_PROPOSAL_CONFLICT"
	CodeLockedFieldEdit     Code = "LOCKED_FIELD_EDIT"
	CodeInvalidAmount       Code = "INVALID_AMOUNT"
	CodeRoundNotFound       Code = "ROUND_NOT_FOUND"
	CodeStartupNotFound     Code = "STARTUP_NOT_FOUND"
	CodeRoundHasInvestments Code = "ROUND_HAS_INVESTMENTS"
	CodeRoundNotOpen        Code = "ROUND_NOT_OPEN"
)

type Error struct {
	Code    Code
	Message string
	Data    map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so callers can write errors.Is(err, rounds.ErrOverlap).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrOverlap             = &Error{Code: CodeOverlap}
	ErrStageExhausted      = &Error{Code: CodeStageExhausted}
	ErrExitedStartup       = &Error{Code: CodeExitedStartup}
	ErrInvalidDateRange    = &Error{Code: CodeInvalidDateRange}
	ErrForbidden           = &Error{Code: CodeForbidden}
	ErrPendingProposal     = &Error{Code: CodePendingProposal}
	ErrLockedFieldEdit     = &Error{Code: CodeLockedFieldEdit}
	ErrInvalidAmount       = &Error{Code: CodeInvalidAmount}
	ErrRoundNotFound       = &Error{Code: CodeRoundNotFound}
	ErrStartupNotFound     = &Error{Code: CodeStartupNotFound}
	ErrRoundHasInvestments = &Error{Code: CodeRoundHasInvestments}
	ErrRoundNotOpen        = &Error{Code: CodeRoundNotOpen}
)

func newError(code Code, message string, data map[string]interface{}) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

// CodeOf extracts the Code of a round error anywhere in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// RoundNotFoundError reports a missing round id.
func RoundNotFoundError(id uint) *Error {
	return newError(CodeRoundNotFound, fmt.Sprintf("Funding round with an id %d does not exist", id), map[string]interface{}{"id": id})
}

// StartupNotFoundError reports a missing startup id.
func StartupNotFoundError(id uint) *Error {
	return newError(CodeStartupNotFound, fmt.Sprintf("Startup with an id %d does not exist", id), map[string]interface{}{"id": id})
}

func forbidden() *Error {
	return newError(CodeForbidden, "Not allowed to perform this action", nil)
}
