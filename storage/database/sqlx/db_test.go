package sqlxrepos_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kozi/services/logger"
	"github.com/trezcool/kozi/storage/database"
	"github.com/trezcool/kozi/storage/database/sqlx"
	"github.com/trezcool/kozi/testutil"
)

const truncateAll = `TRUNCATE course_date, course, venue, contact, course_seminar, seminar_day, day_subject,
	course_design, seminar, day, subject RESTART IDENTITY CASCADE`

// openTestDB connects to the database named by KOZI_TEST_DATABASE_URL and migrates it.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("KOZI_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("KOZI_TEST_DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db, logsvc.NewNopLogger()))
	return db
}

func TestRepositories(t *testing.T) {
	db := openTestDB(t)

	testutil.RunRepositoryTests(t, func(t *testing.T) testutil.Store {
		_, err := db.Exec(truncateAll)
		require.NoError(t, err)

		sdb := sqlxrepos.NewDB(db)
		return testutil.Store{
			Curriculum: sqlxrepos.NewCurriculumRepository(sdb),
			Courses:    sqlxrepos.NewCourseRepository(sdb),
			Tx:         sdb,
		}
	})
}
