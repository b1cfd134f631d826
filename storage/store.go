// Package storage wires the repositories of the configured database backend.
package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/course"
	"github.com/trezcool/kozi/core/curriculum"
	"github.com/trezcool/kozi/storage/database"
	"github.com/trezcool/kozi/storage/database/gorm"
	"github.com/trezcool/kozi/storage/database/inmem"
	"github.com/trezcool/kozi/storage/database/sqlx"
)

// Store bundles the repositories and the transactor of one backend.
type Store struct {
	Curriculum curriculum.Repository
	Courses    course.Repository
	Tx         core.Transactor

	// SQL is the PostgreSQL pool, nil for the memory and sqlite backends.
	SQL *sql.DB

	closers []func() error
}

// Close releases the connections of the store.
func (s *Store) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens the store of conf.Database.Backend.
// PostgreSQL databases are created if missing and migrated when migrate is set.
func Open(ctx context.Context, conf *core.Config, logger core.Logger, migrate bool) (*Store, error) {
	switch conf.Database.Backend {
	case core.BackendMemory:
		db := inmemdb.Open()
		return &Store{
			Curriculum: inmemdb.NewCurriculumRepository(db),
			Courses:    inmemdb.NewCourseRepository(db),
			Tx:         db,
		}, nil

	case core.BackendGorm:
		s := new(Store)
		if conf.Database.Engine != gormrepos.EngineSQLite {
			pool, err := openPostgres(ctx, conf, logger, migrate)
			if err != nil {
				return nil, err
			}
			s.SQL = pool
		}
		db, err := gormrepos.Open(conf, s.SQL, logger)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Curriculum = gormrepos.NewCurriculumRepository(db)
		s.Courses = gormrepos.NewCourseRepository(db)
		s.Tx = db
		s.closers = append(s.closers, db.Close)
		return s, nil

	case core.BackendSQLX:
		pool, err := openPostgres(ctx, conf, logger, migrate)
		if err != nil {
			return nil, err
		}
		db := sqlxrepos.NewDB(pool)
		return &Store{
			Curriculum: sqlxrepos.NewCurriculumRepository(db),
			Courses:    sqlxrepos.NewCourseRepository(db),
			Tx:         db,
			SQL:        pool,
			closers:    []func() error{pool.Close},
		}, nil

	default:
		return nil, errors.Errorf("unknown database backend %q", conf.Database.Backend)
	}
}

func openPostgres(ctx context.Context, conf *core.Config, logger core.Logger, migrate bool) (*sql.DB, error) {
	if migrate {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
	}
	pool, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err = database.Migrate(ctx, pool, logger); err != nil {
			_ = pool.Close()
			return nil, err
		}
	}
	return pool, nil
}
