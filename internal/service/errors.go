package service

import (
	"errors"
	"fmt"
)

// Kind classifies service failures so handlers can map them to HTTP codes
// and clients can route (redirect vs. toast) without parsing messages.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is the failure type returned by all services.
type Error struct {
	Kind    Kind
	Message string
	// ExistingAccount marks the guest-checkout conflict where the email is
	// already registered with a different password.
	ExistingAccount bool
	Err             error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the Kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsExistingAccount reports whether err is the guest-checkout
// already-registered conflict.
func IsExistingAccount(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.ExistingAccount
}
