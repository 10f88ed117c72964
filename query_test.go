package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywasm/record"
)

func TestQueryAssemble(t *testing.T) {
	t.Run("no predicates", func(t *testing.T) {
		got, err := record.NewQuery("projects", "id").Assemble(false)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `projects`.* FROM `projects` WHERE 1 LIMIT 0, 50", got)
	})

	t.Run("numeric shortcut", func(t *testing.T) {
		got, err := record.NewQuery("projects", "id").Where(5).Assemble(false)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `projects`.* FROM `projects` WHERE `id`=5 LIMIT 0, 50", got)

		got, err = record.NewQuery("projects", "id").Where("7").Assemble(false)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `projects`.* FROM `projects` WHERE `id`=7 LIMIT 0, 50", got)
	})

	t.Run("id list", func(t *testing.T) {
		got, err := record.NewQuery("projects", "id").Where([]int{1, 2}).Assemble(false)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `projects`.* FROM `projects` WHERE `id` IN (1,2) LIMIT 0, 50", got)

		got, err = record.NewQuery("projects", "id").Where([]string{"3", "4"}).Assemble(false)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `projects`.* FROM `projects` WHERE `id` IN (3,4) LIMIT 0, 50", got)
	})

	t.Run("non numeric id list", func(t *testing.T) {
		q := record.NewQuery("projects", "id").Where([]string{"1", "x"})
		assert.ErrorIs(t, q.Err(), record.ErrValidation)
		_, err := q.Assemble(false)
		assert.ErrorIs(t, err, record.ErrValidation)
	})

	t.Run("empty predicate", func(t *testing.T) {
		q := record.NewQuery("projects", "id").Where("")
		assert.ErrorIs(t, q.Err(), record.ErrValidation)
	})

	t.Run("predicates order and limit", func(t *testing.T) {
		q := record.NewQuery("projects", "id").
			Where("title=?", "x").
			Where(record.Gt("a", 1)).
			Order("title DESC").
			Order("id").
			Limit(10, 20)
		got, err := q.Assemble(false)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `projects`.* FROM `projects` WHERE title='x' AND `a`>1 ORDER BY title DESC, id LIMIT 20, 10", got)
	})

	t.Run("omit select drops nothing else", func(t *testing.T) {
		got, err := record.NewQuery("projects", "id").Where(5).NoLimit().Assemble(true)
		require.NoError(t, err)
		assert.Equal(t, "`projects` WHERE `id`=5", got)
	})

	t.Run("reset and clone", func(t *testing.T) {
		q := record.NewQuery("projects", "id").Where(5).Order("id").Limit(1, 1)
		c := q.Clone()
		q.Reset()

		got, err := q.Assemble(false)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `projects`.* FROM `projects` WHERE 1 LIMIT 0, 50", got)

		got, err = c.Assemble(false)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `projects`.* FROM `projects` WHERE `id`=5 ORDER BY id LIMIT 1, 1", got)
	})
}

func TestCollectionQuery(t *testing.T) {
	db, mock := newMockDB(t, record.WithDefaultLimit(10))

	c, err := db.Select("Project")
	require.NoError(t, err)
	got, err := c.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT `projects`.* FROM `projects` WHERE 1 LIMIT 0, 10", got)

	c.Where("title=?", "x").Order("id DESC")
	got, err = c.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT `projects`.* FROM `projects` WHERE title='x' ORDER BY id DESC LIMIT 0, 10", got)

	_, err = db.Select("Project", []any{"x"})
	assert.ErrorIs(t, err, record.ErrValidation)

	_, err = db.Select("Nope")
	assert.ErrorIs(t, err, record.ErrConfiguration)
	assert.ErrorIs(t, err, record.ErrUnknownType)

	assert.NoError(t, mock.ExpectationsWereMet())
}
