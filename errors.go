package record

import (
	"errors"

	"github.com/tinywasm/record/errs"
)

// Kind sentinels, re-exported for callers that only import this package.
var (
	ErrConfiguration = errs.ErrConfiguration
	ErrNotFound      = errs.ErrNotFound
	ErrValidation    = errs.ErrValidation
	ErrStorage       = errs.ErrStorage
)

// ErrPrimaryKeyImmutable is returned by Set on the primary key column.
var ErrPrimaryKeyImmutable = errors.New("primary key may not be set")

// ErrTxOpen is returned when a transaction is started while another one is open.
var ErrTxOpen = errors.New("transaction already open")

// ErrEmptyTable is returned by Register when no table name can be derived.
var ErrEmptyTable = errors.New("empty table name")

// ErrUnknownType is returned when an entity type was never registered.
var ErrUnknownType = errors.New("unknown entity type")

func misconfigured(c errs.Component, format string, args ...any) error {
	return errs.New(c, errs.KindConfiguration, format, args...)
}
