package types

import (
	"errors"
	"fmt"
)

// Reason is a stable tag attached to every rejection so a presentation
// layer can pick its own message.
type Reason string

// Rejection reasons
const (
	ReasonUnauthenticated    Reason = "UNAUTHENTICATED"
	ReasonForbidden          Reason = "FORBIDDEN"
	ReasonInvalidTransition  Reason = "INVALID_TRANSITION"
	ReasonNotFound           Reason = "NOT_FOUND"
	ReasonValidation         Reason = "VALIDATION"
	ReasonStorageUnavailable Reason = "STORAGE_UNAVAILABLE"
)

// Sentinel errors for errors.Is matching. Any *Error with the same Reason matches.
var (
	ErrUnauthenticated    = &Error{Reason: ReasonUnauthenticated}
	ErrForbidden          = &Error{Reason: ReasonForbidden}
	ErrInvalidTransition  = &Error{Reason: ReasonInvalidTransition}
	ErrNotFound           = &Error{Reason: ReasonNotFound}
	ErrValidation         = &Error{Reason: ReasonValidation}
	ErrStorageUnavailable = &Error{Reason: ReasonStorageUnavailable}
)

// Error is a classified engine error
type Error struct {
	Reason Reason
	Msg    string
	Err    error // Underlying cause, if any
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == e.Reason
}

// Errorf builds a classified error with a formatted message.
func Errorf(reason Reason, format string, args ...interface{}) error {
	return &Error{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under reason, keeping it as the cause.
// A nil err yields nil.
func Wrap(reason Reason, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Reason: reason, Msg: fmt.Sprintf(format, args...), Err: err}
}

// ReasonOf extracts the reason tag of err. Unclassified errors are
// collaborator failures and map to STORAGE_UNAVAILABLE.
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonStorageUnavailable
}
