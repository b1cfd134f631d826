package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/course"
	"github.com/trezcool/kozi/core/curriculum"
)

// Store bundles the repositories and the transactor of one storage backend.
type Store struct {
	Curriculum curriculum.Repository
	Courses    course.Repository
	Tx         core.Transactor
}

// RunRepositoryTests checks the persistence contract every storage backend must honor.
// newStore must return an empty store.
func RunRepositoryTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Curriculum.GetSubject(ctx, 4242)
		assert.True(t, core.IsNotFound(err), "err = %v", err)
		_, err = s.Courses.GetVenue(ctx, 4242)
		assert.True(t, core.IsNotFound(err), "err = %v", err)
	})

	t.Run("versioned update", func(t *testing.T) {
		s := newStore(t)
		sub := CreateSubject(t, s.Curriculum, "Algebra")
		require.Equal(t, 1, sub.Version)

		sub.Name = "Linear Algebra"
		updated, err := s.Curriculum.UpdateSubject(ctx, sub)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)
		assert.Equal(t, "Linear Algebra", updated.Name)

		// stale version
		_, err = s.Curriculum.UpdateSubject(ctx, sub)
		assert.True(t, core.IsConflict(err), "err = %v", err)

		// vanished row
		require.NoError(t, s.Curriculum.DeleteSubjectsByID(ctx, sub.ID))
		_, err = s.Curriculum.UpdateSubject(ctx, updated)
		assert.True(t, core.IsNotFound(err), "err = %v", err)
	})

	t.Run("query filters", func(t *testing.T) {
		s := newStore(t)
		alg := CreateSubject(t, s.Curriculum, "Algebra")
		geo := CreateSubject(t, s.Curriculum, "Geometry")
		cpy := CreateSubject(t, s.Curriculum, curriculum.WithPrefix("Algebra", "[Course-1]"))

		byID := []core.DBOrdering{{Field: "id", Ascending: true}}
		tests := []struct {
			name     string
			filter   *curriculum.QueryFilter
			ordering []core.DBOrdering
			want     []int
		}{
			{name: "all", ordering: byID, want: []int{alg.ID, geo.ID, cpy.ID}},
			{name: "templates only", filter: &curriculum.QueryFilter{TemplatesOnly: true}, ordering: byID, want: []int{alg.ID, geo.ID}},
			{name: "search", filter: &curriculum.QueryFilter{Search: "ALG"}, ordering: byID, want: []int{alg.ID, cpy.ID}},
			{name: "ids", filter: &curriculum.QueryFilter{IDs: []int{geo.ID, cpy.ID}}, ordering: byID, want: []int{geo.ID, cpy.ID}},
			{
				name:     "ordering",
				ordering: []core.DBOrdering{{Field: "id", Ascending: false}},
				want:     []int{cpy.ID, geo.ID, alg.ID},
			},
			{name: "default ordering by name", filter: &curriculum.QueryFilter{TemplatesOnly: true}, want: []int{alg.ID, geo.ID}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				subs, err := s.Curriculum.QuerySubjects(ctx, tt.filter, tt.ordering)
				require.NoError(t, err)
				ids := make([]int, 0, len(subs))
				for _, sub := range subs {
					ids = append(ids, sub.ID)
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})

	t.Run("links", func(t *testing.T) {
		s := newStore(t)
		s1 := CreateSubject(t, s.Curriculum, "Subject A")
		s2 := CreateSubject(t, s.Curriculum, "Subject B")
		d1 := CreateDay(t, s.Curriculum, "Day One", s2, s1)
		d2 := CreateDay(t, s.Curriculum, "Day Two", s1)

		links, err := s.Curriculum.QueryLinks(ctx, curriculum.DaySubjects, d2.ID, d1.ID)
		require.NoError(t, err)
		assert.Equal(t, []curriculum.Link{
			{ParentID: d1.ID, ChildID: s1.ID},
			{ParentID: d1.ID, ChildID: s2.ID},
			{ParentID: d2.ID, ChildID: s1.ID},
		}, links)

		// existing links are ignored
		require.NoError(t, s.Curriculum.InsertLinks(ctx, curriculum.DaySubjects, curriculum.Link{ParentID: d1.ID, ChildID: s1.ID}))
		links, err = s.Curriculum.QueryLinks(ctx, curriculum.DaySubjects, d1.ID)
		require.NoError(t, err)
		assert.Len(t, links, 2)

		require.NoError(t, s.Curriculum.DeleteLinks(ctx, curriculum.DaySubjects, curriculum.Link{ParentID: d1.ID, ChildID: s2.ID}))
		links, err = s.Curriculum.QueryLinks(ctx, curriculum.DaySubjects, d1.ID)
		require.NoError(t, err)
		assert.Equal(t, []curriculum.Link{{ParentID: d1.ID, ChildID: s1.ID}}, links)

		// deleting a child removes its links
		require.NoError(t, s.Curriculum.DeleteSubjectsByID(ctx, s1.ID))
		links, err = s.Curriculum.QueryLinks(ctx, curriculum.DaySubjects, d1.ID, d2.ID)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("transaction rollback", func(t *testing.T) {
		s := newStore(t)
		errBoom := errors.New("boom")
		err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := s.Curriculum.CreateSubject(ctx, curriculum.Subject{Name: "Rolled back"}); err != nil {
				return err
			}
			// nested calls join the outer transaction
			return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
				if _, err := s.Curriculum.CreateDay(ctx, curriculum.Day{Name: "Rolled back"}); err != nil {
					return err
				}
				return errBoom
			})
		})
		assert.Equal(t, errBoom, errors.Cause(err))

		subs, err := s.Curriculum.QuerySubjects(ctx, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, subs)
		days, err := s.Curriculum.QueryDays(ctx, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, days)
	})

	t.Run("course dates and venues", func(t *testing.T) {
		s := newStore(t)
		tmpl := SeedTemplate(t, s.Curriculum)
		c1 := CreateContact(t, s.Courses, "Jane Doe", "jane@test.cd")
		c2 := CreateContact(t, s.Courses, "John Doe", "")
		v1 := CreateVenue(t, s.Courses, "Main Hall", "hall@test.cd", c1)
		v2 := CreateVenue(t, s.Courses, "Annex", "", c2, c1)

		crs, err := s.Courses.CreateCourse(ctx, course.Course{Name: "Course7", CourseDesignID: tmpl.Design.ID, MaxStudents: 12})
		require.NoError(t, err)

		day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		end := day.Add(8 * time.Hour)
		late, err := s.Courses.CreateCourseDate(ctx, course.CourseDate{CourseID: crs.ID, VenueID: v2.ID, Date: day.AddDate(0, 0, 1)})
		require.NoError(t, err)
		early, err := s.Courses.CreateCourseDate(ctx, course.CourseDate{CourseID: crs.ID, VenueID: v1.ID, Date: day, EndTime: &end})
		require.NoError(t, err)

		dates, err := s.Courses.QueryCourseDates(ctx, &course.DateFilter{CourseIDs: []int{crs.ID}})
		require.NoError(t, err)
		require.Len(t, dates, 2)
		assert.Equal(t, early.ID, dates[0].ID)
		assert.Equal(t, late.ID, dates[1].ID)
		require.NotNil(t, dates[0].EndTime)
		assert.True(t, end.Equal(*dates[0].EndTime))
		assert.Nil(t, dates[1].EndTime)

		venues, err := s.Courses.QueryVenues(ctx, &course.QueryFilter{ContactID: c2.ID}, nil)
		require.NoError(t, err)
		require.Len(t, venues, 1)
		assert.Equal(t, v2.ID, venues[0].ID)

		got, err := s.Courses.GetVenue(ctx, v1.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Contact1ID)
		assert.Equal(t, c1.ID, *got.Contact1ID)
		assert.Nil(t, got.Contact2ID)

		// deleting the course deletes its dates
		require.NoError(t, s.Courses.DeleteCoursesByID(ctx, crs.ID))
		dates, err = s.Courses.QueryCourseDates(ctx, &course.DateFilter{VenueIDs: []int{v1.ID, v2.ID}})
		require.NoError(t, err)
		assert.Empty(t, dates)
	})
}
