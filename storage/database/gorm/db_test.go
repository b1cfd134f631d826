package gormrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/course"
	"github.com/trezcool/kozi/services/logger"
	"github.com/trezcool/kozi/storage/database/gorm"
	"github.com/trezcool/kozi/testutil"
)

func openTestDB(t *testing.T) *gormrepos.DB {
	t.Helper()
	db, err := gormrepos.OpenSQLite(":memory:", logsvc.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newStore(t *testing.T) testutil.Store {
	db := openTestDB(t)
	return testutil.Store{
		Curriculum: gormrepos.NewCurriculumRepository(db),
		Courses:    gormrepos.NewCourseRepository(db),
		Tx:         db,
	}
}

func TestRepositories(t *testing.T) {
	testutil.RunRepositoryTests(t, newStore)
}

func TestForeignKeys(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	contact := testutil.CreateContact(t, s.Courses, "Jane Doe", "jane@test.cd")
	testutil.CreateVenue(t, s.Courses, "Main Hall", "", contact)

	// venues restrict the deletion of their contacts
	err := s.Courses.DeleteContactsByID(ctx, contact.ID)
	assert.True(t, core.IsPersistence(err), "err = %v", err)

	// dates reference existing courses
	_, err = s.Courses.CreateCourseDate(ctx, course.CourseDate{CourseID: 404, VenueID: 404, Date: time.Now()})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		engine  string
		wantErr bool
	}{
		{name: "sqlite", engine: gormrepos.EngineSQLite},
		{name: "unknown engine", engine: "oracle", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &core.Config{Database: core.DatabaseConfig{Engine: tt.engine, Path: ":memory:"}}
			db, err := gormrepos.Open(conf, nil, logsvc.NewNopLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, db.Close())
		})
	}
}

func TestLogger(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	l := gormrepos.NewLogger(logsvc.WrapZap(zap.New(obs)))
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), query, nil)
	assert.Equal(t, 0, logs.Len(), "fast queries are not logged at warn level")

	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	l.Trace(ctx, time.Now(), query, errors.New("boom"))
	entries := logs.TakeAll()
	require.Len(t, entries, 2)
	assert.Equal(t, "slow query", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "query failed", entries[1].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)

	verbose := l.LogMode(gormlogger.Info)
	verbose.Trace(ctx, time.Now(), query, nil)
	verbose.Info(ctx, "opened %s", "db")
	entries = logs.TakeAll()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "opened db", entries[1].Message)

	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), query, errors.New("boom"))
	assert.Equal(t, 0, logs.Len())
}
