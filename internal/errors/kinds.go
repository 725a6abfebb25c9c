package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure so callers can decide between fixing input,
// reconciling with stored state, or retrying.
type Kind int

const (
	// KindUpstream is any failure of the persistence layer. It is the kind of
	// every error that carries no other classification.
	KindUpstream Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "upstream"
	}
}

// Sentinels for errors.Is checks against an *Error of the matching kind.
var (
	ErrValidation   = stderrors.New("validation failed")
	ErrNotFound     = stderrors.New("not found")
	ErrUnauthorized = stderrors.New("unauthorized")
	ErrConflict     = stderrors.New("conflict")
	ErrUpstream     = stderrors.New("upstream failure")
)

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindUnauthorized:
		return ErrUnauthorized
	case KindConflict:
		return ErrConflict
	default:
		return ErrUpstream
	}
}

// Error is a classified failure of operation Op.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of e's kind, so errors.Is(err, ErrNotFound) holds
// for any NotFound error regardless of its message.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// E builds an *Error of kind k for op from a message.
func E(k Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: k, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err as kind k for op. It returns nil for a nil err and
// keeps the kind of an err that is already classified.
func Wrap(k Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if stderrors.As(err, &existing) {
		return &Error{Kind: existing.Kind, Op: op, Err: err}
	}
	return &Error{Kind: k, Op: op, Err: err}
}

func Validation(op, format string, args ...interface{}) error {
	return E(KindValidation, op, format, args...)
}

func NotFound(op, format string, args ...interface{}) error {
	return E(KindNotFound, op, format, args...)
}

func Unauthorized(op, format string, args ...interface{}) error {
	return E(KindUnauthorized, op, format, args...)
}

func Conflict(op, format string, args ...interface{}) error {
	return E(KindConflict, op, format, args...)
}

// Upstream wraps a persistence failure unchanged in meaning.
func Upstream(op string, err error) error {
	return Wrap(KindUpstream, op, err)
}

// KindOf returns the kind of the outermost classified error in err's chain.
// Unclassified errors are KindUpstream.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// Is reports whether err has kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
