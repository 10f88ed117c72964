// Package errs defines the typed errors shared by the record engine, the
// router and the dispatch loop.
//
// Every error carries a Kind and a stable numeric code taken from a fixed
// component table: code = component*1000 + kind. Callers match kinds with
// errors.Is against the sentinels below.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindNotFound
	KindValidation
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// Component is the framework part an error originates from.
type Component int

const (
	ComponentRouter Component = iota + 1
	ComponentQuery
	ComponentCodec
	ComponentPersistence
	ComponentRelation
	ComponentEntity
	ComponentSchema
	ComponentDispatch
)

func (c Component) String() string {
	switch c {
	case ComponentRouter:
		return "router"
	case ComponentQuery:
		return "query"
	case ComponentCodec:
		return "codec"
	case ComponentPersistence:
		return "persistence"
	case ComponentRelation:
		return "relation"
	case ComponentEntity:
		return "entity"
	case ComponentSchema:
		return "schema"
	case ComponentDispatch:
		return "dispatch"
	}
	return "unknown"
}

// Code returns the code assigned to errors of kind k raised by c.
func Code(c Component, k Kind) int {
	return int(c)*1000 + int(k)
}

var (
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrStorage       = errors.New("storage error")
)

func sentinel(k Kind) error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	case KindStorage:
		return ErrStorage
	}
	return nil
}

// Error is the concrete error type returned by every package of this module.
type Error struct {
	Kind      Kind
	Component Component
	Code      int
	Message   string

	// BackendCode is the storage driver's own error code, if it exposes one.
	BackendCode string

	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%d] %s", e.Code, e.Message)
	if e.BackendCode != "" {
		msg += " (backend " + e.BackendCode + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	s := sentinel(e.Kind)
	return s != nil && target == s
}

// New returns an error of kind k raised by c.
func New(c Component, k Kind, format string, args ...any) *Error {
	return &Error{
		Kind:      k,
		Component: c,
		Code:      Code(c, k),
		Message:   fmt.Sprintf(format, args...),
	}
}

// Wrap is New with an underlying cause.
func Wrap(c Component, k Kind, err error, format string, args ...any) *Error {
	e := New(c, k, format, args...)
	e.Err = err
	return e
}

// Storage wraps a backend failure, extracting the driver's error code when the
// driver error exposes a Code() method.
func Storage(c Component, err error, format string, args ...any) *Error {
	e := Wrap(c, KindStorage, err, format, args...)
	e.BackendCode = BackendCode(err)
	return e
}

// BackendCode extracts a driver specific error code from err, or "".
func BackendCode(err error) string {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return fmt.Sprint(coded.Code())
	}
	var named interface{ SQLState() string }
	if errors.As(err, &named) {
		return named.SQLState()
	}
	return ""
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the code of err, or 0 for foreign errors.
func CodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
