// Package gormrepos implements the repositories with GORM, on PostgreSQL or SQLite.
package gormrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/trezcool/kozi/core"
)

const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

type txKey struct{}

// DB wraps the gorm handle. It is the core.Transactor of the gorm repositories.
type DB struct {
	db *gorm.DB
}

var _ core.Transactor = (*DB)(nil)

// OpenPostgres wraps an open PostgreSQL pool. The schema is managed by the goose migrations.
func OpenPostgres(sqlDB *sql.DB, logger core.Logger) (*DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: NewLogger(logger)})
	if err != nil {
		return nil, errors.Wrap(err, "opening gorm postgres")
	}
	return &DB{db: db}, nil
}

// OpenSQLite opens the SQLite database at path (":memory:" for a private in-memory one)
// with foreign keys enforced, and creates the tables.
func OpenSQLite(path string, logger core.Logger) (*DB, error) {
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:"
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_foreign_keys=1"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: NewLogger(logger)})
	if err != nil {
		return nil, errors.Wrap(err, "opening gorm sqlite")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "opening gorm sqlite")
	}
	// one connection: an in-memory database lives and dies with its connection,
	// and sqlite serializes writers anyway
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if err = db.AutoMigrate(allModels...); err != nil {
		return nil, errors.Wrap(err, "migrating sqlite")
	}
	return &DB{db: db}, nil
}

// Open opens the database of conf.Database.Engine.
// For postgres, sqlDB must be an open pool whose schema is up to date.
func Open(conf *core.Config, sqlDB *sql.DB, logger core.Logger) (*DB, error) {
	switch conf.Database.Engine {
	case EnginePostgres, "":
		return OpenPostgres(sqlDB, logger)
	case EngineSQLite:
		return OpenSQLite(conf.Database.Path, logger)
	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

func (db *DB) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// conn returns the transaction carried by the context, or the pool, bound to ctx.
func (db *DB) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.db.WithContext(ctx)
}

// WithinTx commits if fn succeeds and rolls back otherwise. Nested calls join the outer transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	var fnErr error
	err := db.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(context.WithValue(ctx, txKey{}, tx))
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return core.NewPersistenceError(err, "committing transaction")
}

// trapNotFound maps gorm.ErrRecordNotFound to core.ErrNotFound and wraps anything else as a persistence error.
func trapNotFound(err error, entity string, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(core.ErrNotFound, entity)
	}
	return core.NewPersistenceError(err, op)
}

// versionedUpdate updates the row matching the id and the version of model and bumps its version.
// dest is reloaded on success.
func (db *DB) versionedUpdate(ctx context.Context, dest interface{}, entity string, id, version int, values map[string]interface{}) error {
	values["version"] = gorm.Expr("version + 1")
	res := db.conn(ctx).Model(dest).Where("id = ? AND version = ?", id, version).Updates(values)
	if res.Error != nil {
		return core.NewPersistenceError(res.Error, "updating "+entity)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.conn(ctx).Model(dest).Where("id = ?", id).Count(&n).Error; err != nil {
			return core.NewPersistenceError(err, "checking "+entity)
		}
		return core.StaleUpdateError(n > 0, entity)
	}
	return trapNotFound(db.conn(ctx).First(dest, id).Error, entity, "getting "+entity)
}

func (db *DB) deleteByID(ctx context.Context, model interface{}, entity string, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	return core.NewPersistenceError(db.conn(ctx).Where("id IN ?", ids).Delete(model).Error, "deleting "+entity)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// search matches the name case-insensitively on both engines.
func search(q *gorm.DB, term string) *gorm.DB {
	if term == "" {
		return q
	}
	return q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+strings.ToLower(likeEscaper.Replace(term))+"%")
}

func withIDs(q *gorm.DB, column string, ids []int) *gorm.DB {
	if len(ids) == 0 {
		return q
	}
	return q.Where(column+" IN ?", ids)
}

var nameOrdering = map[string]string{"id": "id", "name": "name"}

func orderBy(ordering []core.DBOrdering) string {
	return core.OrderingClause(ordering, nameOrdering, "name ASC, id ASC")
}

// Logger adapts core.Logger to the gorm logger. Queries are logged at debug level,
// slow ones and failures as warnings and errors.
type Logger struct {
	logger        core.Logger
	level         gormlogger.LogLevel
	SlowThreshold time.Duration
}

var _ gormlogger.Interface = (*Logger)(nil)

func NewLogger(logger core.Logger) *Logger {
	return &Logger{logger: logger, level: gormlogger.Warn, SlowThreshold: 200 * time.Millisecond}
}

func (l *Logger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	nl := *l
	nl.level = level
	return &nl
}

func (l *Logger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *Logger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *Logger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *Logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.logger.Error("query failed", "error", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.Warn("slow query", "elapsed", elapsed, "rows", rows, "sql", sql)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.Debug("query", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
