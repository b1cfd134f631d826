// Package sqlxrepos implements the repositories on PostgreSQL with jmoiron/sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/kozi/core"
)

type txKey struct{}

// DB wraps the connection pool. It is the core.Transactor of the sqlx repositories.
type DB struct {
	db *sqlx.DB
}

var _ core.Transactor = (*DB)(nil)

func NewDB(db *sql.DB) *DB {
	return &DB{db: sqlx.NewDb(db, "postgres")}
}

// exec returns the transaction carried by the context, or the pool.
func (db *DB) exec(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db.db
}

// WithinTx commits if fn succeeds and rolls back otherwise. Nested calls join the outer transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewPersistenceError(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back: %v", rbErr)
		}
		return err
	}
	return core.NewPersistenceError(tx.Commit(), "committing transaction")
}

// trapNoRowsErr maps "no rows" to core.ErrNotFound and wraps anything else as a persistence error.
func trapNoRowsErr(err error, entity string, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(core.ErrNotFound, entity)
	}
	return core.NewPersistenceError(err, op)
}

// staleUpdate resolves an update that matched no row.
func (db *DB) staleUpdate(ctx context.Context, table, entity string, id int) error {
	var exists bool
	q := "SELECT EXISTS (SELECT 1 FROM " + table + " WHERE id = $1)"
	if err := sqlx.GetContext(ctx, db.exec(ctx), &exists, q, id); err != nil {
		return core.NewPersistenceError(err, "checking "+entity)
	}
	return core.StaleUpdateError(exists, entity)
}

func (db *DB) deleteByID(ctx context.Context, table string, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM "+table+" WHERE id IN (?)", ids)
	if err != nil {
		return core.NewPersistenceError(err, "deleting from "+table)
	}
	ex := db.exec(ctx)
	_, err = ex.ExecContext(ctx, ex.Rebind(q), args...)
	return core.NewPersistenceError(err, "deleting from "+table)
}

// where collects the conditions of a query; placeholders are written as "?" and rebound at the end.
type where struct {
	conds []string
	args  []interface{}
	err   error
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) in(column string, ids []int) {
	if len(ids) == 0 || w.err != nil {
		return
	}
	cond, args, err := sqlx.In(column+" IN (?)", ids)
	if err != nil {
		w.err = err
		return
	}
	w.add(cond, args...)
}

func (w *where) search(column, search string) {
	if search != "" {
		w.add(column+" ILIKE ?", "%"+likeEscaper.Replace(search)+"%")
	}
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var nameOrdering = map[string]string{"id": "id", "name": "name"}

func orderBy(ordering []core.DBOrdering) string {
	return " ORDER BY " + core.OrderingClause(ordering, nameOrdering, "name ASC, id ASC")
}

// selectRows runs "SELECT * FROM table" with the conditions and the ordering.
func (db *DB) selectRows(ctx context.Context, dest interface{}, table string, w *where, order string) error {
	if w.err != nil {
		return core.NewPersistenceError(w.err, "querying "+table)
	}
	ex := db.exec(ctx)
	q := ex.Rebind("SELECT * FROM " + table + w.String() + order)
	return core.NewPersistenceError(sqlx.SelectContext(ctx, ex, dest, q, w.args...), "querying "+table)
}
