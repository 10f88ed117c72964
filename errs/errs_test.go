package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tinywasm/record/errs"
)

type codedErr struct{ code int }

func (c codedErr) Error() string { return "driver failure" }
func (c codedErr) Code() int     { return c.code }

func TestErrorKinds(t *testing.T) {
	t.Run("sentinel matching", func(t *testing.T) {
		err := errs.New(errs.ComponentRouter, errs.KindNotFound, "no handler for %q", "x")
		assert.ErrorIs(t, err, errs.ErrNotFound)
		assert.NotErrorIs(t, err, errs.ErrStorage)
		assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	})

	t.Run("codes share a component family", func(t *testing.T) {
		a := errs.New(errs.ComponentPersistence, errs.KindStorage, "a")
		b := errs.New(errs.ComponentPersistence, errs.KindValidation, "b")
		assert.Equal(t, 4004, a.Code)
		assert.Equal(t, 4003, b.Code)
		assert.Equal(t, a.Code/1000, b.Code/1000)
	})

	t.Run("wrapped through fmt.Errorf", func(t *testing.T) {
		inner := errs.New(errs.ComponentEntity, errs.KindValidation, "bad")
		err := fmt.Errorf("outer: %w", inner)
		assert.ErrorIs(t, err, errs.ErrValidation)
		assert.Equal(t, 6003, errs.CodeOf(err))
	})

	t.Run("storage carries backend code", func(t *testing.T) {
		err := errs.Storage(errs.ComponentPersistence, codedErr{code: 19}, "insert into %s", "issues")
		assert.Equal(t, "19", err.BackendCode)
		assert.ErrorIs(t, err, errs.ErrStorage)
		assert.True(t, errors.As(err, new(codedErr)))
		assert.Contains(t, err.Error(), "driver failure")
	})

	t.Run("foreign errors", func(t *testing.T) {
		assert.Equal(t, errs.KindUnknown, errs.KindOf(errors.New("x")))
		assert.Equal(t, 0, errs.CodeOf(errors.New("x")))
	})
}
