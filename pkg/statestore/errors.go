package statestore

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is the operation-level status carried on every Result. Unlike a Go
// error, a non-OK Code reflects the caller's request rather than a store
// malfunction, and is always safe for the caller to inspect and retry on.
type Code int

const (
	CodeOK Code = iota
	CodeSmallerRevision
	CodeKeyNotFound
	CodeIllegalOp
	CodeInvalidState
	CodeInternalError
	CodeUnsupportedOp
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeSmallerRevision:
		return "SMALLER_REVISION"
	case CodeKeyNotFound:
		return "KEY_NOT_FOUND"
	case CodeIllegalOp:
		return "ILLEGAL_OP"
	case CodeInvalidState:
		return "INVALID_STATE"
	case CodeInternalError:
		return "INTERNAL_ERROR"
	case CodeUnsupportedOp:
		return "UNSUPPORTED_OP"
	default:
		return fmt.Sprintf("UNKNOWN_CODE(%d)", int(c))
	}
}

// StoreError is a raised (fatal-to-the-call) failure: underlying engine
// I/O failure, record decode/corruption, or a state-machine violation. It
// carries a Code for callers that want to switch on it, plus the
// underlying cause.
type StoreError struct {
	Code Code
	msg  string
	err  error
}

func newStoreError(code Code, err error, msg string) *StoreError {
	return &StoreError{Code: code, err: err, msg: msg}
}

func (e *StoreError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.msg)
}

func (e *StoreError) Unwrap() error { return e.err }

func errInvalidState(msg string) error {
	return newStoreError(CodeInvalidState, nil, msg)
}

func errInternal(msg string, err error) error {
	return newStoreError(CodeInternalError, errors.WithMessage(err, msg), msg)
}
