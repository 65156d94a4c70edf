package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/multierr"
)

// Kind classifies failures surfaced to the viewer as notices.
type Kind string

const (
	KindNotAuthenticated Kind = "not_authenticated"
	KindValidation       Kind = "validation_failure"
	KindRemoteWrite      Kind = "remote_write_failure"
	KindPartialBatch     Kind = "partial_batch_failure"
	KindNotFound         Kind = "not_found"
	KindInternal         Kind = "internal"
)

var (
	ErrNotAuthenticated = &Error{Kind: KindNotAuthenticated, Message: "Please login to continue"}
	ErrNotFound         = errors.New("not found")
)

// Error is the error type every feed operation returns.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// Failed lists the positions of a batch that did not complete.
	Failed []int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can compare against the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message, Err: ErrNotFound}
}

func RemoteWrite(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindRemoteWrite, Message: message, Err: err}
}

// Internal wraps a failed read or subscription the viewer cannot act on.
func Internal(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// PartialBatch folds the per-item errors of a multi-write into one error.
// It returns nil when no item failed.
func PartialBatch(message string, failed []int, errs []error) error {
	if len(failed) == 0 {
		return nil
	}
	return &Error{
		Kind:    KindPartialBatch,
		Message: message,
		Err:     multierr.Combine(errs...),
		Failed:  failed,
	}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// Notice returns the user-facing message for err.
func Notice(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong. Try again."
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotAuthenticated:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRemoteWrite, KindPartialBatch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func IsNotAuthenticated(err error) bool {
	return KindOf(err) == KindNotAuthenticated
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
