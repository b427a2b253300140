package services

import (
	stderrors "errors"
	"fmt"
	"log"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Kind classifies why an operation was rejected.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is the only error type services return to handlers. Message is safe
// to show to the caller; Err keeps the underlying cause for logs.
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

func (e *Error) Unwrap() error { return e.Err }

func validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// internal wraps a storage failure. The cause is logged and kept for
// errors.Is but never shown to the caller.
func internal(err error, op string) error {
	var svcErr *Error
	if stderrors.As(err, &svcErr) {
		return err
	}
	wrapped := errors.Wrap(err, op)
	log.Printf("❌ [STORE] %v", wrapped)
	return &Error{Kind: KindInternal, Message: "internal error", Err: wrapped}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var svcErr *Error
	if stderrors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

func isNotFound(err error) bool {
	return stderrors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return stderrors.Is(err, gorm.ErrDuplicatedKey)
}
