// Package apperr defines the error taxonomy shared by the ledger packages.
// Callers classify failures with errors.Is against the sentinels below or
// with CodeOf; the HTTP layer maps codes to status codes.
package apperr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

type Code string

const (
	InvalidInput       Code = "invalid_input"
	UnknownSymbol      Code = "unknown_symbol"
	UnknownPosition    Code = "unknown_position"
	InsufficientFunds  Code = "insufficient_funds"
	InsufficientShares Code = "insufficient_shares"
	DuplicateUsername  Code = "duplicate_username"
	InvalidCredentials Code = "invalid_credentials"
	QuoteUnavailable   Code = "quote_unavailable"
	StorageFailure     Code = "storage_failure"
)

var (
	ErrInvalidInput       = &Error{Code: InvalidInput}
	ErrUnknownSymbol      = &Error{Code: UnknownSymbol}
	ErrUnknownPosition    = &Error{Code: UnknownPosition}
	ErrInsufficientFunds  = &Error{Code: InsufficientFunds}
	ErrInsufficientShares = &Error{Code: InsufficientShares}
	ErrDuplicateUsername  = &Error{Code: DuplicateUsername}
	ErrInvalidCredentials = &Error{Code: InvalidCredentials}
	ErrQuoteUnavailable   = &Error{Code: QuoteUnavailable}
	ErrStorageFailure     = &Error{Code: StorageFailure}
)

// Error carries a Code plus an optional message and cause.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match for any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches code and message to err, recording a stack trace on the cause.
// A nil err yields nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Msg: msg, Err: pkgerrors.WithStack(err)}
}

// Storage wraps a driver or connectivity failure unless err is already classified.
func Storage(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return Wrap(err, StorageFailure, msg)
}

// CodeOf returns the code of the first *Error in err's chain, or "" when
// err is nil or unclassified.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
