package record_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywasm/record"
)

func TestBelongsToLazyResolve(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(selectProjects).WillReturnRows(projectRows())
	c, err := db.Select("Project")
	require.NoError(t, err)
	p, err := c.First()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT `owners`.* FROM `owners` WHERE `id`=10 LIMIT 0, 50").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(10), "ann"))

	owner, err := p.BelongsTo("owner")
	require.NoError(t, err)
	require.NotNil(t, owner)
	name, err := owner.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "ann", name)

	t.Run("cached", func(t *testing.T) {
		again, err := p.Get("owner")
		require.NoError(t, err)
		assert.Same(t, owner, again)
	})

	t.Run("foreign key write invalidates", func(t *testing.T) {
		require.NoError(t, p.Set("owner_id", int64(10)))
		again, err := p.BelongsTo("owner")
		require.NoError(t, err)
		assert.Same(t, owner, again, "same key keeps the cached target")

		mock.ExpectQuery("SELECT `owners`.* FROM `owners` WHERE `id`=11 LIMIT 0, 50").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(11), "bob"))
		require.NoError(t, p.Set("ownerId", int64(11)))
		other, err := p.BelongsTo("owner")
		require.NoError(t, err)
		assert.Equal(t, int64(11), other.ID())
	})

	t.Run("absent key issues no query", func(t *testing.T) {
		second, err := c.At(1)
		require.NoError(t, err)
		owner, err := second.Get("owner")
		require.NoError(t, err)
		assert.Nil(t, owner)
	})

	t.Run("wrong accessor kind", func(t *testing.T) {
		_, err := p.HasMany("owner")
		assert.ErrorIs(t, err, record.ErrConfiguration)
		_, err = p.HasOne("nope")
		assert.ErrorIs(t, err, record.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasManyResolve(t *testing.T) {
	db, mock := newMockDB(t)

	t.Run("new owner issues no query", func(t *testing.T) {
		p, err := db.NewRow("Project", record.Values{"title": "n"})
		require.NoError(t, err)
		issues, err := p.HasMany("issues")
		require.NoError(t, err)
		n, err := issues.Count()
		require.NoError(t, err)
		assert.Zero(t, n)

		detail, err := p.HasOne("detail")
		require.NoError(t, err)
		assert.Nil(t, detail)
	})

	t.Run("persisted owner", func(t *testing.T) {
		mock.ExpectQuery(selectProjects).WillReturnRows(projectRows())
		c, err := db.Select("Project")
		require.NoError(t, err)
		p, err := c.First()
		require.NoError(t, err)

		mock.ExpectQuery("SELECT `issues`.* FROM `issues` WHERE `project_id`=1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "v"}).
				AddRow(int64(5), int64(1), int64(1)).
				AddRow(int64(6), int64(1), int64(2)))

		v, err := p.Get("issues")
		require.NoError(t, err)
		issues, ok := v.(*record.Collection)
		require.True(t, ok)
		vals, err := issues.Get("v")
		require.NoError(t, err)
		assert.Equal(t, []any{int64(1), int64(2)}, vals)

		again, err := p.HasMany("issues")
		require.NoError(t, err)
		assert.Same(t, issues, again)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationAssignValidation(t *testing.T) {
	db, mock := newMockDB(t)
	p, err := db.NewRow("Project", record.Values{"title": "n"})
	require.NoError(t, err)
	owner, err := db.NewRow("Owner", record.Values{"name": "o"})
	require.NoError(t, err)

	assert.ErrorIs(t, p.Set("issues", record.Values{"v": 1}), record.ErrValidation, "bare map for hasMany")
	assert.ErrorIs(t, p.Set("issues", []any{1, 2}), record.ErrValidation)
	assert.ErrorIs(t, p.Set("issues", []*record.Row{owner}), record.ErrValidation, "wrong target type")
	assert.ErrorIs(t, p.Set("owner", p), record.ErrValidation, "wrong target type")
	assert.ErrorIs(t, p.Set("owner", 42), record.ErrValidation)
	assert.ErrorIs(t, p.Set("detail", []record.Values{{"body": "a"}, {"body": "b"}}), record.ErrValidation)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationAssignBackReference(t *testing.T) {
	db, mock := newMockDB(t)

	p, err := db.NewRow("Project", record.Values{"title": "n"})
	require.NoError(t, err)
	issue, err := db.NewRow("Issue", record.Values{"v": 1})
	require.NoError(t, err)

	require.NoError(t, p.Set("issues", []*record.Row{issue}))

	back, err := issue.BelongsTo("project")
	require.NoError(t, err)
	assert.Same(t, p, back)

	issues, err := p.HasMany("issues")
	require.NoError(t, err)
	assert.Same(t, issues, issue.Collection())

	t.Run("belongsTo unlink", func(t *testing.T) {
		require.NoError(t, issue.Set("project", nil))
		v, ok := issue.Column("project_id")
		assert.True(t, ok)
		assert.Nil(t, v)
		back, err := issue.BelongsTo("project")
		require.NoError(t, err)
		assert.Nil(t, back)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
