package inmemdb

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kozi/core/curriculum"
	"github.com/trezcool/kozi/testutil"
)

func newStore(t *testing.T) testutil.Store {
	db := Open()
	return testutil.Store{
		Curriculum: NewCurriculumRepository(db),
		Courses:    NewCourseRepository(db),
		Tx:         db,
	}
}

func TestRepositories(t *testing.T) {
	testutil.RunRepositoryTests(t, newStore)
}

func TestDB_WithinTx_serializes(t *testing.T) {
	db := Open()
	repo := NewCurriculumRepository(db)
	ctx := context.Background()
	sub := testutil.CreateSubject(t, repo, "Counter")

	// read-modify-write cycles inside transactions never observe a stale version
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.WithinTx(ctx, func(ctx context.Context) error {
				cur, err := repo.GetSubject(ctx, sub.ID)
				if err != nil {
					return err
				}
				_, err = repo.UpdateSubject(ctx, cur)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetSubject(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 21, got.Version)
}

func TestCurriculumRepository_InsertLinks_missingRow(t *testing.T) {
	db := Open()
	repo := NewCurriculumRepository(db)
	day := testutil.CreateDay(t, repo, "Lonely Day")

	err := repo.InsertLinks(context.Background(), curriculum.DaySubjects, curriculum.Link{ParentID: day.ID, ChildID: 999})
	assert.Error(t, err)
}

func TestDB_Reset(t *testing.T) {
	db := Open()
	repo := NewCurriculumRepository(db)
	testutil.SeedTemplate(t, repo)

	db.Reset()
	cds, err := repo.QueryCourseDesigns(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, cds)
}
