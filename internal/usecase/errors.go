package usecase

import (
	"errors"
	"fmt"

	"github.com/iliyamo/sports-booking-backend/internal/repository"
)

// Kind classifies an Error; handlers map it to an HTTP status.
type Kind uint8

const (
	KindInvalid Kind = iota + 1
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
	KindUnavailable
	KindInternal
)

var kindNames = map[Kind]string{
	KindInvalid:      "invalid",
	KindNotFound:     "not_found",
	KindConflict:     "conflict",
	KindForbidden:    "forbidden",
	KindUnauthorized: "unauthorized",
	KindUnavailable:  "unavailable",
	KindInternal:     "internal",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Message is an i18n key with its template arguments.
type Message struct {
	Key  string
	Args map[string]any
}

// Error is returned by every use case.  Key names the i18n message shown to
// the client; Fields carries per field validation messages.
type Error struct {
	Kind   Kind
	Key    string
	Args   map[string]any
	Fields map[string]Message
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Key)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, key string, args map[string]any) *Error {
	return &Error{Kind: kind, Key: key, Args: args}
}

func errInvalid(key string, args map[string]any) error  { return newError(KindInvalid, key, args) }
func errConflict(key string, args map[string]any) error { return newError(KindConflict, key, args) }
func errNotFound(key string) error                      { return newError(KindNotFound, key, nil) }
func errForbidden(key string) error                     { return newError(KindForbidden, key, nil) }
func errUnauthorized(key string) error                  { return newError(KindUnauthorized, key, nil) }

func errUnavailable(key string, err error) error {
	return &Error{Kind: KindUnavailable, Key: key, Err: err}
}

func errInternal(err error) error {
	return &Error{Kind: KindInternal, Key: "errors.internal", Err: err}
}

// AsError returns err as an *Error, wrapping anything else as internal.
func AsError(err error) *Error {
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	return &Error{Kind: KindInternal, Key: "errors.internal", Err: err}
}

// fromRepo translates repository sentinels.  An *Error passes through.
func fromRepo(err error) error {
	var ue *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ue):
		return ue
	case errors.Is(err, repository.ErrNotFound):
		return &Error{Kind: KindNotFound, Key: "errors.not_found", Err: err}
	case errors.Is(err, repository.ErrConflict):
		return &Error{Kind: KindConflict, Key: "errors.conflict", Err: err}
	case errors.Is(err, repository.ErrInvalidFilter):
		return &Error{Kind: KindInvalid, Key: "validation.invalid_filter", Err: err}
	case errors.Is(err, repository.ErrForbidden):
		return &Error{Kind: KindForbidden, Key: "errors.forbidden", Err: err}
	}
	return errInternal(err)
}

// fromDelete is fromRepo for deletes, where a conflict means the row is
// still referenced.
func fromDelete(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return &Error{Kind: KindConflict, Key: "errors.in_use", Err: err}
	}
	return fromRepo(err)
}

// conflictAs maps a duplicate key to a specific message.
func conflictAs(err error, key string) error {
	if errors.Is(err, repository.ErrConflict) {
		return &Error{Kind: KindConflict, Key: key, Err: err}
	}
	return fromRepo(err)
}
