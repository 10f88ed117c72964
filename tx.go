package record

import (
	"go.uber.org/zap"

	"github.com/tinywasm/record/errs"
)

// Tx executes fn within a transaction: rolled back when fn fails, committed
// otherwise. Transactions are never nested.
func (db *DB) Tx(fn func(ex Executor) error) error {
	txExec, ok := db.exec.(TxExecutor)
	if !ok {
		return errs.New(errs.ComponentPersistence, errs.KindConfiguration, "executor does not support transactions")
	}
	if db.inTx {
		return errs.Wrap(errs.ComponentPersistence, errs.KindStorage, ErrTxOpen, "cannot begin transaction")
	}

	bound, err := txExec.BeginTx()
	if err != nil {
		return errs.Storage(errs.ComponentPersistence, err, "begin transaction")
	}
	db.inTx = true
	defer func() { db.inTx = false }()

	if err := fn(bound); err != nil {
		if rbErr := bound.Rollback(); rbErr != nil {
			db.log.Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := bound.Commit(); err != nil {
		return errs.Storage(errs.ComponentPersistence, err, "commit")
	}
	return nil
}

// run executes one plan on ex, logging and counting it.
func (db *DB) run(ex Executor, p Plan) (int64, int64, error) {
	db.log.Debug("exec", zap.Stringer("action", p.Action), zap.String("table", p.Table), zap.String("sql", p.SQL))
	db.metrics.Statement(p.Action.String(), p.Table)

	res, err := ex.Exec(p.SQL)
	if err != nil {
		return 0, 0, db.storageErr(p, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, 0, db.storageErr(p, err)
	}
	if p.Action != ActionInsert {
		return 0, affected, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, 0, db.storageErr(p, err)
	}
	return id, affected, nil
}

func (db *DB) storageErr(p Plan, err error) error {
	db.metrics.StorageError(p.Action.String())
	e := errs.Storage(errs.ComponentPersistence, err, "%s %s", p.Action, p.Table)
	db.log.Error("statement failed",
		zap.Stringer("action", p.Action),
		zap.String("table", p.Table),
		zap.String("backend_code", e.BackendCode),
		zap.Error(err))
	return e
}
