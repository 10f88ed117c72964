package record

import "database/sql"

// Executor represents the database connection abstraction.
// It is satisfied by *sql.DB, *sql.Tx and sqlmock connections.
type Executor interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
}

// TxBoundExecutor represents an executor bound to a transaction.
type TxBoundExecutor interface {
	Executor
	Commit() error
	Rollback() error
}

// TxExecutor represents an executor that supports transactions.
type TxExecutor interface {
	Executor
	BeginTx() (TxBoundExecutor, error)
}

type sqlExecutor struct {
	*sql.DB
}

func (s sqlExecutor) BeginTx() (TxBoundExecutor, error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// FromSQL adapts a database/sql handle.
func FromSQL(db *sql.DB) TxExecutor {
	return sqlExecutor{DB: db}
}
