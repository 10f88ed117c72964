package record_test

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/tinywasm/record"
)

// codedErr mimics a driver error exposing a numeric code.
type codedErr struct {
	code int
	msg  string
}

func (e codedErr) Error() string { return e.msg }
func (e codedErr) Code() int     { return e.code }

// fixtures declares the entity types used across tests:
//
//	Owner 1-n Project 1-n Issue, Project 1-1 Detail (no back reference),
//	Category exercises the y -> ies table name rule.
func fixtures() []record.Schema {
	return []record.Schema{
		{
			Name:    "Owner",
			HasMany: []string{"projects"},
			Columns: []record.Column{{Name: "name", Type: record.TypeText}},
		},
		{
			Name:      "Project",
			BelongsTo: []string{"owner"},
			HasOne:    []string{"detail"},
			HasMany:   []string{"issues"},
			Columns: []record.Column{
				{Name: "title", Type: record.TypeText},
				{Name: "a", Type: record.TypeInt64},
			},
			Getters: map[string]record.Getter{
				"label": func(r *record.Row) (any, error) {
					v, _ := r.Column("title")
					s, _ := v.(string)
					return strings.ToUpper(s), nil
				},
			},
			Setters: map[string]record.Setter{
				"slug": func(r *record.Row, value any) error {
					s, _ := value.(string)
					return r.SetColumn("slug", strings.ToLower(strings.TrimSpace(s)))
				},
			},
		},
		{
			Name:      "Issue",
			BelongsTo: []string{"project"},
			Columns: []record.Column{
				{Name: "v", Type: record.TypeInt64},
				{Name: "summary", Type: record.TypeText},
			},
		},
		{
			Name:    "Detail",
			Columns: []record.Column{{Name: "body", Type: record.TypeText}, {Name: "project_id", Type: record.TypeInt64}},
		},
		{Name: "Category"},
	}
}

// newMockDB returns a DB over sqlmock with exact statement matching.
func newMockDB(t *testing.T, opts ...record.Option) (*record.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db := record.New(record.FromSQL(conn), opts...)
	require.NoError(t, db.Register(fixtures()...))
	return db, mock
}

// newSQLiteDB returns a DB over an in-memory sqlite database with the fixture
// tables created.
func newSQLiteDB(t *testing.T) *record.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	db := record.New(record.FromSQL(conn))
	require.NoError(t, db.Register(fixtures()...))
	for _, name := range db.Types() {
		ddl, err := db.CreateTable(name)
		require.NoError(t, err)
		_, err = db.Exec(ddl)
		require.NoError(t, err, ddl)
	}
	return db
}

func expectInsert(mock sqlmock.Sqlmock, stmt string, id int64) {
	mock.ExpectBegin()
	mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(id, 1))
	mock.ExpectCommit()
}

func expectExec(mock sqlmock.Sqlmock, stmt string, affected int64) {
	mock.ExpectBegin()
	mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, affected))
	mock.ExpectCommit()
}
