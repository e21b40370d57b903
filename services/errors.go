package services

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the transports.
type Kind string

const (
	KindValidation       Kind = "validation_error"
	KindNotFound         Kind = "not_found"
	KindAlreadyCompleted Kind = "already_completed"
	KindAuth             Kind = "auth_error"
	KindParse            Kind = "parse_error"
	KindInternal         Kind = "internal_error"

	// KindConflict is reserved. The ledger reports a daily completion
	// conflict as an already completed outcome, so no result carries it.
	KindConflict Kind = "conflict"
)

// Error carries a client-facing message and, optionally, the cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func ValidationError(message string) *Error { return NewError(KindValidation, message, nil) }
func NotFoundError(message string) *Error   { return NewError(KindNotFound, message, nil) }
func AuthError(message string) *Error       { return NewError(KindAuth, message, nil) }
func ParseError(message string, err error) *Error {
	return NewError(KindParse, message, err)
}
func InternalError(err error) *Error {
	return NewError(KindInternal, err.Error(), err)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
